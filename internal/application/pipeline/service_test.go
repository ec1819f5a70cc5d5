package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/segmenter"
)

// newTestService 组装一个全 mock 协作方的管线
func newTestService(t *testing.T, seg *MockTopicSegmenter, embedder *MockEmbedder, store *MockVectorStore,
	llm *MockCompleter, transcripts *MockTranscriptStore, repo *MockMeetingRepository) *Service {
	t.Helper()

	augmentor, err := NewAugmentor(embedder, store, testPipelineConfig())
	require.NoError(t, err)

	return NewService(
		NewChunker(seg),
		NewIndexer(embedder, store),
		augmentor,
		NewOrchestrator(llm, testPipelineConfig()),
		transcripts,
		repo,
	)
}

func TestService_ProcessMeeting(t *testing.T) {
	segments := testSegments()

	t.Run("完整流程", func(t *testing.T) {
		seg := new(MockTopicSegmenter)
		seg.On("Segment", mock.Anything, mock.Anything).Return([]segmenter.Boundary{
			{StartIndex: 0, EndIndex: 4},
		}, nil)

		embedder := new(MockEmbedder)
		embedder.On("EmbedTexts", mock.Anything, mock.Anything).Return([][]float32{{0.1, 0.2}}, nil)
		embedder.On("EmbedText", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)

		store := new(MockVectorStore)
		store.On("UpsertChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		store.On("Search", mock.Anything, mock.Anything, "user-1", mock.Anything, 3).
			Return([]*meeting.SearchResult{}, nil)

		llm := new(MockCompleter)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"subject": "s", "summary": "m", "items": []}`, nil)

		transcripts := new(MockTranscriptStore)
		transcripts.On("SaveTranscript", mock.Anything, "user-1", "2024-04-22", mock.Anything, mock.Anything).
			Return("meetings/user-1/2024-04-22/x.txt", nil)

		repo := new(MockMeetingRepository)
		repo.On("Save", mock.MatchedBy(func(m *meeting.Meeting) bool {
			return m.UserID == "user-1" && m.Indexed && m.ChunkCount == 1
		})).Return(nil)

		svc := newTestService(t, seg, embedder, store, llm, transcripts, repo)

		result, err := svc.ProcessMeeting(context.Background(), segments, "user-1", "2024-04-22", "주간 회의")
		require.NoError(t, err)

		assert.NotEmpty(t, result.MeetingID)
		assert.Equal(t, "주간 회의", result.Title)
		assert.Contains(t, result.Transcript, "김은수: 오늘 회의 시작하겠습니다")
		assert.Equal(t, "meetings/user-1/2024-04-22/x.txt", result.StoragePath)
		assert.Equal(t, 1, result.ChunkCount)
		require.NotNil(t, result.Extraction)

		// 检索增强必须排除本次会议自身
		store.AssertCalled(t, "Search", mock.Anything, mock.Anything, "user-1", result.MeetingID, 3)
		repo.AssertExpectations(t)
	})

	t.Run("文稿保存失败直接终止", func(t *testing.T) {
		transcripts := new(MockTranscriptStore)
		transcripts.On("SaveTranscript", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("s3 down"))

		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), transcripts, new(MockMeetingRepository))

		_, err := svc.ProcessMeeting(context.Background(), segments, "user-1", "2024-04-22", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "persist transcript")
	})

	t.Run("索引失败不阻断抽取", func(t *testing.T) {
		seg := new(MockTopicSegmenter)
		seg.On("Segment", mock.Anything, mock.Anything).Return([]segmenter.Boundary{
			{StartIndex: 0, EndIndex: 4},
		}, nil)

		embedder := new(MockEmbedder)
		embedder.On("EmbedTexts", mock.Anything, mock.Anything).Return(nil, errors.New("embed down"))
		embedder.On("EmbedText", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)

		store := new(MockVectorStore)
		store.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*meeting.SearchResult{}, nil)

		llm := new(MockCompleter)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"subject": "s", "summary": "m", "items": []}`, nil)

		transcripts := new(MockTranscriptStore)
		transcripts.On("SaveTranscript", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("key", nil)

		repo := new(MockMeetingRepository)
		repo.On("Save", mock.MatchedBy(func(m *meeting.Meeting) bool {
			return !m.Indexed && m.ChunkCount == 0
		})).Return(nil)

		svc := newTestService(t, seg, embedder, store, llm, transcripts, repo)

		result, err := svc.ProcessMeeting(context.Background(), segments, "user-1", "2024-04-22", "")
		require.NoError(t, err)
		require.NotNil(t, result.Extraction)
		repo.AssertExpectations(t)
	})

	t.Run("记录落库失败不影响返回", func(t *testing.T) {
		seg := new(MockTopicSegmenter)
		seg.On("Segment", mock.Anything, mock.Anything).Return([]segmenter.Boundary{
			{StartIndex: 0, EndIndex: 4},
		}, nil)

		embedder := new(MockEmbedder)
		embedder.On("EmbedTexts", mock.Anything, mock.Anything).Return([][]float32{{0.1}}, nil)
		embedder.On("EmbedText", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)

		store := new(MockVectorStore)
		store.On("UpsertChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		store.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*meeting.SearchResult{}, nil)

		llm := new(MockCompleter)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"subject": "s", "summary": "m", "items": []}`, nil)

		transcripts := new(MockTranscriptStore)
		transcripts.On("SaveTranscript", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("key", nil)

		repo := new(MockMeetingRepository)
		repo.On("Save", mock.Anything).Return(errors.New("db locked"))

		svc := newTestService(t, seg, embedder, store, llm, transcripts, repo)

		result, err := svc.ProcessMeeting(context.Background(), segments, "user-1", "2024-04-22", "")
		require.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("非法日期报错", func(t *testing.T) {
		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), new(MockTranscriptStore), new(MockMeetingRepository))

		_, err := svc.ProcessMeeting(context.Background(), segments, "user-1", "04/22/2024", "")
		require.Error(t, err)
	})

	t.Run("空片段报错", func(t *testing.T) {
		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), new(MockTranscriptStore), new(MockMeetingRepository))

		_, err := svc.ProcessMeeting(context.Background(), nil, "user-1", "2024-04-22", "")
		require.Error(t, err)
	})

	t.Run("缺省标题自动生成", func(t *testing.T) {
		seg := new(MockTopicSegmenter)
		seg.On("Segment", mock.Anything, mock.Anything).Return([]segmenter.Boundary{
			{StartIndex: 0, EndIndex: 4},
		}, nil)

		embedder := new(MockEmbedder)
		embedder.On("EmbedTexts", mock.Anything, mock.Anything).Return([][]float32{{0.1}}, nil)
		embedder.On("EmbedText", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)

		store := new(MockVectorStore)
		store.On("UpsertChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		store.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*meeting.SearchResult{}, nil)

		llm := new(MockCompleter)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"subject": "", "summary": "", "items": []}`, nil)

		transcripts := new(MockTranscriptStore)
		transcripts.On("SaveTranscript", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("key", nil)

		repo := new(MockMeetingRepository)
		repo.On("Save", mock.Anything).Return(nil)

		svc := newTestService(t, seg, embedder, store, llm, transcripts, repo)

		result, err := svc.ProcessMeeting(context.Background(), segments, "user-1", "2024-04-22", "")
		require.NoError(t, err)
		assert.Contains(t, result.Title, "user-1_2024-04-22_")
	})
}

func TestService_GetTranscript(t *testing.T) {
	t.Run("按记录的对象键读取文稿", func(t *testing.T) {
		transcripts := new(MockTranscriptStore)
		transcripts.On("GetTranscript", mock.Anything, "meetings/u/d/m-1.txt").
			Return("김은수: 오늘 회의 시작하겠습니다", nil)

		repo := new(MockMeetingRepository)
		repo.On("FindByID", "m-1").Return(&meeting.Meeting{
			ID:          "m-1",
			StoragePath: "meetings/u/d/m-1.txt",
		}, nil)

		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), transcripts, repo)

		content, err := svc.GetTranscript(context.Background(), "m-1")
		require.NoError(t, err)
		assert.Equal(t, "김은수: 오늘 회의 시작하겠습니다", content)
		transcripts.AssertExpectations(t)
	})

	t.Run("记录不存在报错", func(t *testing.T) {
		repo := new(MockMeetingRepository)
		repo.On("FindByID", "missing").Return(nil, nil)

		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), new(MockTranscriptStore), repo)

		_, err := svc.GetTranscript(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("存储读取失败透传错误", func(t *testing.T) {
		transcripts := new(MockTranscriptStore)
		transcripts.On("GetTranscript", mock.Anything, "key").
			Return("", errors.New("s3 down"))

		repo := new(MockMeetingRepository)
		repo.On("FindByID", "m-1").Return(&meeting.Meeting{ID: "m-1", StoragePath: "key"}, nil)

		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), transcripts, repo)

		_, err := svc.GetTranscript(context.Background(), "m-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load transcript")
	})
}

func TestService_DeleteMeeting(t *testing.T) {
	t.Run("删除向量文稿记录", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("DeleteMeeting", mock.Anything, "m-1").Return(nil)

		transcripts := new(MockTranscriptStore)
		transcripts.On("DeleteTranscript", mock.Anything, "meetings/u/d/m-1.txt").Return(nil)

		repo := new(MockMeetingRepository)
		repo.On("FindByID", "m-1").Return(&meeting.Meeting{
			ID:          "m-1",
			StoragePath: "meetings/u/d/m-1.txt",
		}, nil)
		repo.On("Delete", "m-1").Return(nil)

		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), store,
			new(MockCompleter), transcripts, repo)

		require.NoError(t, svc.DeleteMeeting(context.Background(), "m-1"))
		store.AssertExpectations(t)
		transcripts.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("记录不存在报错", func(t *testing.T) {
		repo := new(MockMeetingRepository)
		repo.On("FindByID", "missing").Return(nil, nil)

		svc := newTestService(t, new(MockTopicSegmenter), new(MockEmbedder), new(MockVectorStore),
			new(MockCompleter), new(MockTranscriptStore), repo)

		err := svc.DeleteMeeting(context.Background(), "missing")
		require.Error(t, err)
	})
}
