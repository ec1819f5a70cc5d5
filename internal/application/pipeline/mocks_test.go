package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/segmenter"
)

// MockTopicSegmenter 模拟语义分段服务
type MockTopicSegmenter struct {
	mock.Mock
}

func (m *MockTopicSegmenter) Segment(ctx context.Context, sentences []string) ([]segmenter.Boundary, error) {
	args := m.Called(ctx, sentences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]segmenter.Boundary), args.Error(1)
}

// MockEmbedder 模拟向量化客户端
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockVectorStore 模拟向量存储
type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) UpsertChunks(ctx context.Context, mt *meeting.Meeting, chunks []meeting.Chunk, vectors [][]float32) error {
	args := m.Called(ctx, mt, chunks, vectors)
	return args.Error(0)
}

func (m *MockVectorStore) Search(ctx context.Context, queryVector []float32, userID, excludeMeetingID string, limit int) ([]*meeting.SearchResult, error) {
	args := m.Called(ctx, queryVector, userID, excludeMeetingID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*meeting.SearchResult), args.Error(1)
}

func (m *MockVectorStore) DeleteMeeting(ctx context.Context, meetingID string) error {
	args := m.Called(ctx, meetingID)
	return args.Error(0)
}

// MockCompleter 模拟 LLM 客户端
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// MockTranscriptStore 模拟文稿对象存储
type MockTranscriptStore struct {
	mock.Mock
}

func (m *MockTranscriptStore) SaveTranscript(ctx context.Context, userID, meetingDate, meetingID, content string) (string, error) {
	args := m.Called(ctx, userID, meetingDate, meetingID, content)
	return args.String(0), args.Error(1)
}

func (m *MockTranscriptStore) GetTranscript(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockTranscriptStore) DeleteTranscript(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockMeetingRepository 模拟会议记录仓储
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Save(mt *meeting.Meeting) error {
	args := m.Called(mt)
	return args.Error(0)
}

func (m *MockMeetingRepository) FindByID(id string) (*meeting.Meeting, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meeting.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) ListByUser(userID, yearMonth string) ([]*meeting.Meeting, error) {
	args := m.Called(userID, yearMonth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*meeting.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}
