package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetnote/backend/internal/application/pipeline"
	"github.com/meetnote/backend/internal/domain/meeting"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupMeetingRouter 创建测试路由
// 仅覆盖参数校验路径，不触达下游服务
func setupMeetingRouter() *gin.Engine {
	router := gin.New()
	handler := NewMeetingHandler(nil, nil)

	api := router.Group("/api/v1")
	{
		api.POST("/meetings/process", handler.Process)
		api.POST("/meetings/search", handler.Search)
		api.GET("/meetings", handler.List)
	}

	return router
}

// TestMeetingHandler_Process_InvalidRequest 测试缺少必填字段时返回参数错误
func TestMeetingHandler_Process_InvalidRequest(t *testing.T) {
	router := setupMeetingRouter()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "缺少 user_id",
			body: map[string]interface{}{
				"meeting_date": "2024-04-22",
				"segments":     []map[string]interface{}{{"speaker": "SPEAKER_00", "text": "안녕하세요"}},
			},
		},
		{
			name: "缺少 meeting_date",
			body: map[string]interface{}{
				"user_id":  "user-1",
				"segments": []map[string]interface{}{{"speaker": "SPEAKER_00", "text": "안녕하세요"}},
			},
		},
		{
			name: "缺少 segments",
			body: map[string]interface{}{
				"user_id":      "user-1",
				"meeting_date": "2024-04-22",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/meetings/process", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, float64(100001), response["code"])
		})
	}
}

// TestMeetingHandler_Search_InvalidRequest 测试检索请求参数校验
func TestMeetingHandler_Search_InvalidRequest(t *testing.T) {
	router := setupMeetingRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/meetings/search", bytes.NewReader([]byte(`{"query":""}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// fakeEmbedder 固定向量的向量化桩
type fakeEmbedder struct{}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

// fakeVectorStore 记录检索参数并返回固定结果的向量存储桩
type fakeVectorStore struct {
	searchCalled bool
	lastUserID   string
	results      []*meeting.SearchResult
}

func (f *fakeVectorStore) UpsertChunks(ctx context.Context, m *meeting.Meeting, chunks []meeting.Chunk, vectors [][]float32) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, queryVector []float32, userID, excludeMeetingID string, limit int) ([]*meeting.SearchResult, error) {
	f.searchCalled = true
	f.lastUserID = userID
	return f.results, nil
}

func (f *fakeVectorStore) DeleteMeeting(ctx context.Context, meetingID string) error {
	return nil
}

// TestMeetingHandler_Search_WithoutUserID 测试省略 user_id 时跨全部用户检索
func TestMeetingHandler_Search_WithoutUserID(t *testing.T) {
	store := &fakeVectorStore{
		results: []*meeting.SearchResult{
			{Score: 0.9, Text: "배포는 금요일", MeetingID: "m-1", MeetingDate: "2024-04-19"},
		},
	}
	search := pipeline.NewSearchService(&fakeEmbedder{}, store)

	router := gin.New()
	handler := NewMeetingHandler(nil, search)
	router.POST("/api/v1/meetings/search", handler.Search)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/meetings/search", bytes.NewReader([]byte(`{"query":"배포 일정"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.searchCalled)
	assert.Equal(t, "", store.lastUserID)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data, ok := response["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
}

// fakeTranscriptStore 固定文稿内容的对象存储桩
type fakeTranscriptStore struct {
	content string
}

func (f *fakeTranscriptStore) SaveTranscript(ctx context.Context, userID, meetingDate, meetingID, content string) (string, error) {
	return "key", nil
}

func (f *fakeTranscriptStore) GetTranscript(ctx context.Context, key string) (string, error) {
	return f.content, nil
}

func (f *fakeTranscriptStore) DeleteTranscript(ctx context.Context, key string) error {
	return nil
}

// fakeMeetingRepository 单条会议记录的仓储桩
type fakeMeetingRepository struct {
	meeting *meeting.Meeting
}

func (f *fakeMeetingRepository) Save(m *meeting.Meeting) error { return nil }

func (f *fakeMeetingRepository) FindByID(id string) (*meeting.Meeting, error) {
	if f.meeting != nil && f.meeting.ID == id {
		return f.meeting, nil
	}
	return nil, nil
}

func (f *fakeMeetingRepository) ListByUser(userID, yearMonth string) ([]*meeting.Meeting, error) {
	return nil, nil
}

func (f *fakeMeetingRepository) Delete(id string) error { return nil }

// TestMeetingHandler_Transcript 测试文稿读取端点
func TestMeetingHandler_Transcript(t *testing.T) {
	transcripts := &fakeTranscriptStore{content: "김은수: 오늘 회의 시작하겠습니다"}
	repo := &fakeMeetingRepository{meeting: &meeting.Meeting{ID: "m-1", StoragePath: "meetings/u/d/m-1.txt"}}
	svc := pipeline.NewService(nil, nil, nil, nil, transcripts, repo)

	router := gin.New()
	handler := NewMeetingHandler(svc, nil)
	router.GET("/api/v1/meetings/:id/transcript", handler.Transcript)

	t.Run("返回文稿全文", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/meetings/m-1/transcript", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data, ok := response["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "m-1", data["meeting_id"])
		assert.Equal(t, "김은수: 오늘 회의 시작하겠습니다", data["transcript"])
	})

	t.Run("会议不存在返回 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/meetings/missing/transcript", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(900003), response["code"])
	})
}

// TestMeetingHandler_List_MissingUserID 测试列表查询缺少 user_id
func TestMeetingHandler_List_MissingUserID(t *testing.T) {
	router := setupMeetingRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meetings", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormatInstant(t *testing.T) {
	t.Run("nil 时间返回 nil", func(t *testing.T) {
		assert.Nil(t, formatInstant(nil))
	})

	t.Run("格式化为不带时区的秒级时间", func(t *testing.T) {
		ts := time.Date(2024, 5, 3, 10, 30, 0, 0, time.UTC)
		got := formatInstant(&ts)
		require.NotNil(t, got)
		assert.Equal(t, "2024-05-03T10:30:00", *got)
	})
}

func TestToItemDTOs(t *testing.T) {
	start := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	dtos := toItemDTOs([]meeting.ExtractionItem{
		{Text: "주간 회의", Start: &start, End: &end, Place: "회의실 A"},
		{Text: "보고서 작성", Start: nil, End: nil},
	})

	require.Len(t, dtos, 2)

	assert.Equal(t, "주간 회의", dtos[0].Text)
	require.NotNil(t, dtos[0].Start)
	assert.Equal(t, "2024-05-03T10:00:00", *dtos[0].Start)
	require.NotNil(t, dtos[0].End)
	assert.Equal(t, "2024-05-03T11:00:00", *dtos[0].End)
	assert.Equal(t, "회의실 A", dtos[0].Place)

	assert.Nil(t, dtos[1].Start)
	assert.Nil(t, dtos[1].End)
}

func TestToMeetingDTO(t *testing.T) {
	created := time.Date(2024, 4, 22, 9, 15, 0, 0, time.UTC)
	dto := toMeetingDTO(&meeting.Meeting{
		ID:          "meeting-1",
		UserID:      "user-1",
		MeetingDate: "2024-04-22",
		Title:       "주간 회의",
		ChunkCount:  3,
		Indexed:     true,
		CreatedAt:   created,
	})

	assert.Equal(t, "meeting-1", dto.ID)
	assert.Equal(t, "user-1", dto.UserID)
	assert.Equal(t, "2024-04-22", dto.MeetingDate)
	assert.Equal(t, "주간 회의", dto.Title)
	assert.Equal(t, 3, dto.ChunkCount)
	assert.True(t, dto.Indexed)
	assert.Equal(t, "2024-04-22T09:15:00", dto.CreatedAt)
}
