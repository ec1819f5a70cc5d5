package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meetnote/backend/internal/application/pipeline"
	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/interfaces/http/response"
)

// instantFormat 对外输出的时间格式（与原有 Java 客户端兼容，不带时区后缀）
const instantFormat = "2006-01-02T15:04:05"

// MeetingHandler 会议处理器
type MeetingHandler struct {
	pipeline *pipeline.Service
	search   *pipeline.SearchService
}

// NewMeetingHandler 创建会议处理器
func NewMeetingHandler(p *pipeline.Service, s *pipeline.SearchService) *MeetingHandler {
	return &MeetingHandler{pipeline: p, search: s}
}

// SegmentDTO 转写片段 DTO
type SegmentDTO struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// ProcessMeetingRequest 会议处理请求
type ProcessMeetingRequest struct {
	UserID      string       `json:"user_id" binding:"required"`
	MeetingDate string       `json:"meeting_date" binding:"required"` // YYYY-MM-DD
	Title       string       `json:"title"`
	Segments    []SegmentDTO `json:"segments" binding:"required"`
}

// ExtractionItemDTO 抽取条目 DTO
// Start/End 为 null 表示时间未能解析
type ExtractionItemDTO struct {
	Text  string  `json:"text"`
	Start *string `json:"start"`
	End   *string `json:"end"`
	Place string  `json:"place,omitempty"`
}

// SummaryDTO 摘要 DTO
type SummaryDTO struct {
	Subject string `json:"subject"`
	Summary string `json:"summary"`
}

// ProcessMeetingResponse 会议处理响应
type ProcessMeetingResponse struct {
	MeetingID  string              `json:"meeting_id"`
	Title      string              `json:"title"`
	ChunkCount int                 `json:"chunk_count"`
	Summary    SummaryDTO          `json:"summary"`
	Todos      []ExtractionItemDTO `json:"todos"`
	Schedule   []ExtractionItemDTO `json:"schedule"`
}

// SearchMeetingsRequest 历史会议检索请求
// user_id 为空时跨全部用户检索
type SearchMeetingsRequest struct {
	Query  string `json:"query" binding:"required"`
	UserID string `json:"user_id"`
	TopK   int    `json:"top_k"`
}

// SearchResultDTO 检索结果 DTO
type SearchResultDTO struct {
	Score       float32  `json:"score"`
	Text        string   `json:"text"`
	Speakers    []string `json:"speakers"`
	MeetingID   string   `json:"meeting_id"`
	MeetingDate string   `json:"meeting_date"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
}

// MeetingDTO 会议记录 DTO
type MeetingDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	MeetingDate string `json:"meeting_date"`
	Title       string `json:"title"`
	ChunkCount  int    `json:"chunk_count"`
	Indexed     bool   `json:"indexed"`
	CreatedAt   string `json:"created_at"`
}

// formatInstant 将可空时间格式化为可空字符串
func formatInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(instantFormat)
	return &s
}

// toItemDTOs 将抽取条目转换为 DTO 列表
func toItemDTOs(items []meeting.ExtractionItem) []ExtractionItemDTO {
	dtos := make([]ExtractionItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, ExtractionItemDTO{
			Text:  item.Text,
			Start: formatInstant(item.Start),
			End:   formatInstant(item.End),
			Place: item.Place,
		})
	}
	return dtos
}

// toMeetingDTO 将领域模型转换为 DTO
func toMeetingDTO(m *meeting.Meeting) *MeetingDTO {
	return &MeetingDTO{
		ID:          m.ID,
		UserID:      m.UserID,
		MeetingDate: m.MeetingDate,
		Title:       m.Title,
		ChunkCount:  m.ChunkCount,
		Indexed:     m.Indexed,
		CreatedAt:   m.CreatedAt.Format(instantFormat),
	}
}

// Process 处理会议转写
// @Summary 处理会议转写（分块、索引、摘要与待办/日程抽取）
// @Tags 会议
// @Accept json
// @Produce json
// @Param body body ProcessMeetingRequest true "转写片段与元数据"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /meetings/process [post]
func (h *MeetingHandler) Process(c *gin.Context) {
	var req ProcessMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "参数错误")
		return
	}

	segments := make([]meeting.Segment, 0, len(req.Segments))
	for _, dto := range req.Segments {
		segments = append(segments, meeting.Segment{
			Speaker: dto.Speaker,
			Text:    dto.Text,
			Start:   dto.Start,
			End:     dto.End,
		})
	}

	result, err := h.pipeline.ProcessMeeting(c.Request.Context(), segments, req.UserID, req.MeetingDate, req.Title)
	if err != nil {
		response.ErrorWithDetail(c, http.StatusInternalServerError, 900001, "会议处理失败", err.Error())
		return
	}

	response.Success(c, &ProcessMeetingResponse{
		MeetingID:  result.MeetingID,
		Title:      result.Title,
		ChunkCount: result.ChunkCount,
		Summary: SummaryDTO{
			Subject: result.Extraction.Summary.Subject,
			Summary: result.Extraction.Summary.Summary,
		},
		Todos:    toItemDTOs(result.Extraction.Todos),
		Schedule: toItemDTOs(result.Extraction.Schedule),
	})
}

// Search 检索历史会议
// @Summary 语义检索历史会议片段
// @Tags 会议
// @Accept json
// @Produce json
// @Param body body SearchMeetingsRequest true "检索条件"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /meetings/search [post]
func (h *MeetingHandler) Search(c *gin.Context) {
	var req SearchMeetingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "参数错误")
		return
	}

	results := h.search.SearchMeetings(c.Request.Context(), req.Query, req.UserID, req.TopK)

	dtos := make([]*SearchResultDTO, 0, len(results))
	for _, r := range results {
		dtos = append(dtos, &SearchResultDTO{
			Score:       r.Score,
			Text:        r.Text,
			Speakers:    r.Speakers,
			MeetingID:   r.MeetingID,
			MeetingDate: r.MeetingDate,
			Start:       r.Start,
			End:         r.End,
		})
	}

	response.Success(c, dtos)
}

// List 查询会议列表
// @Summary 查询用户的会议列表
// @Tags 会议
// @Accept json
// @Produce json
// @Param user_id query string true "用户 ID"
// @Param year_month query string false "按月过滤（YYYY-MM）"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, http.StatusBadRequest, 100001, "参数错误")
		return
	}
	yearMonth := c.Query("year_month")

	meetings, err := h.pipeline.ListMeetings(userID, yearMonth)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 900002, "查询会议列表失败")
		return
	}

	dtos := make([]*MeetingDTO, 0, len(meetings))
	for _, m := range meetings {
		dtos = append(dtos, toMeetingDTO(m))
	}

	response.Success(c, dtos)
}

// TranscriptResponse 会议文稿响应
type TranscriptResponse struct {
	MeetingID  string `json:"meeting_id"`
	Transcript string `json:"transcript"`
}

// Transcript 读取会议文稿
// @Summary 读取会议的原始文稿全文
// @Tags 会议
// @Accept json
// @Produce json
// @Param id path string true "会议 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /meetings/{id}/transcript [get]
func (h *MeetingHandler) Transcript(c *gin.Context) {
	id := c.Param("id")

	content, err := h.pipeline.GetTranscript(c.Request.Context(), id)
	if err != nil {
		if pipeline.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, 900003, "会议不存在")
			return
		}
		response.ErrorWithDetail(c, http.StatusInternalServerError, 900005, "读取会议文稿失败", err.Error())
		return
	}

	response.Success(c, &TranscriptResponse{MeetingID: id, Transcript: content})
}

// Delete 删除会议
// @Summary 删除会议记录及其向量与文稿
// @Tags 会议
// @Accept json
// @Produce json
// @Param id path string true "会议 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /meetings/{id} [delete]
func (h *MeetingHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.pipeline.DeleteMeeting(c.Request.Context(), id); err != nil {
		if pipeline.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, 900003, "会议不存在")
			return
		}
		response.ErrorWithDetail(c, http.StatusInternalServerError, 900004, "删除会议失败", err.Error())
		return
	}

	response.Success(c, gin.H{"id": id})
}
