package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// ErrMeetingNotFound 会议记录不存在
var ErrMeetingNotFound = errors.New("meeting not found")

// IsNotFound 判断错误是否为会议不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMeetingNotFound)
}

// TranscriptStore 会议文稿对象存储协作方
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, userID, meetingDate, meetingID, content string) (string, error)
	GetTranscript(ctx context.Context, key string) (string, error)
	DeleteTranscript(ctx context.Context, key string) error
}

// Service 会议处理管线
// 格式化 → 文稿落盘 → 分块 →（索引 ∥ 增强+抽取）→ 记录落库
type Service struct {
	chunker      *Chunker
	indexer      *Indexer
	augmentor    *Augmentor
	orchestrator *Orchestrator
	transcripts  TranscriptStore
	meetings     meeting.Repository
	logger       *slog.Logger
}

// NewService 创建会议处理管线
func NewService(
	chunker *Chunker,
	indexer *Indexer,
	augmentor *Augmentor,
	orchestrator *Orchestrator,
	transcripts TranscriptStore,
	meetings meeting.Repository,
) *Service {
	return &Service{
		chunker:      chunker,
		indexer:      indexer,
		augmentor:    augmentor,
		orchestrator: orchestrator,
		transcripts:  transcripts,
		meetings:     meetings,
		logger:       log.NewModuleLogger("pipeline", "service"),
	}
}

// ProcessResult 会议处理结果
type ProcessResult struct {
	MeetingID     string
	Title         string
	Transcript    string
	AugmentedText string
	StoragePath   string
	ChunkCount    int
	Extraction    *meeting.ExtractionResult
}

// ProcessMeeting 处理一场会议
// 文稿落盘失败是致命错误；索引、抽取、记录落库失败都只记录日志
func (s *Service) ProcessMeeting(ctx context.Context, segments []meeting.Segment, userID, meetingDate, title string) (*ProcessResult, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("segments cannot be empty")
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	dateRef, err := time.Parse("2006-01-02", meetingDate)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting date %q: %w", meetingDate, err)
	}

	transcript := meeting.FormatSegments(segments)
	if transcript == "" {
		return nil, fmt.Errorf("no speech content in segments")
	}

	meetingID := uuid.New().String()
	if title == "" {
		title = fmt.Sprintf("%s_%s_%s", userID, meetingDate, time.Now().Format("150405"))
	}

	ctx = log.WithMeetingID(log.WithUserID(ctx, userID), meetingID)

	s.logger.Info("Processing meeting",
		"meeting_id", meetingID,
		"user_id", userID,
		"meeting_date", meetingDate,
		"segments", len(segments),
	)

	// 文稿是后续一切处理的凭据，保存失败直接终止
	storagePath, err := s.transcripts.SaveTranscript(ctx, userID, meetingDate, meetingID, transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to persist transcript: %w", err)
	}

	chunks := s.chunker.ChunkSegments(ctx, segments)

	m := &meeting.Meeting{
		ID:          meetingID,
		UserID:      userID,
		MeetingDate: meetingDate,
		Title:       title,
		StoragePath: storagePath,
		CreatedAt:   time.Now(),
	}

	// 索引与增强抽取没有数据依赖，并行执行
	var (
		chunkCount int
		indexErr   error
		augmented  string
		extraction *meeting.ExtractionResult
	)

	var g errgroup.Group

	g.Go(func() error {
		chunkCount, indexErr = s.indexer.IndexChunks(ctx, m, chunks)
		if indexErr != nil {
			s.logger.Error("Failed to index meeting chunks",
				"meeting_id", meetingID,
				"error", indexErr,
			)
		}
		return nil
	})

	g.Go(func() error {
		augmented = s.augmentor.Augment(ctx, transcript, userID, meetingID)
		extraction = s.orchestrator.Extract(ctx, augmented, dateRef)
		return nil
	})

	_ = g.Wait()

	m.ChunkCount = chunkCount
	m.Indexed = indexErr == nil && chunkCount > 0

	// 会议记录仅用于列表展示，落库失败不影响返回结果
	if err := s.meetings.Save(m); err != nil {
		s.logger.Error("Failed to save meeting record",
			"meeting_id", meetingID,
			"error", err,
		)
	}

	s.logger.Info("Meeting processed",
		"meeting_id", meetingID,
		"chunks", chunkCount,
		"indexed", m.Indexed,
	)

	return &ProcessResult{
		MeetingID:     meetingID,
		Title:         title,
		Transcript:    transcript,
		AugmentedText: augmented,
		StoragePath:   storagePath,
		ChunkCount:    chunkCount,
		Extraction:    extraction,
	}, nil
}

// ListMeetings 列出用户的会议记录
// yearMonth 非空时（YYYY-MM）只返回该月
func (s *Service) ListMeetings(userID, yearMonth string) ([]*meeting.Meeting, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.meetings.ListByUser(userID, yearMonth)
}

// GetTranscript 读取会议的原始文稿全文
func (s *Service) GetTranscript(ctx context.Context, meetingID string) (string, error) {
	m, err := s.meetings.FindByID(meetingID)
	if err != nil {
		return "", fmt.Errorf("failed to find meeting: %w", err)
	}
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrMeetingNotFound, meetingID)
	}
	if m.StoragePath == "" {
		return "", fmt.Errorf("%w: %s has no transcript", ErrMeetingNotFound, meetingID)
	}

	content, err := s.transcripts.GetTranscript(ctx, m.StoragePath)
	if err != nil {
		return "", fmt.Errorf("failed to load transcript: %w", err)
	}
	return content, nil
}

// DeleteMeeting 删除会议：向量、文稿、记录
func (s *Service) DeleteMeeting(ctx context.Context, meetingID string) error {
	m, err := s.meetings.FindByID(meetingID)
	if err != nil {
		return fmt.Errorf("failed to find meeting: %w", err)
	}
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMeetingNotFound, meetingID)
	}

	if err := s.indexer.Purge(ctx, meetingID); err != nil {
		return fmt.Errorf("failed to purge meeting vectors: %w", err)
	}

	if m.StoragePath != "" {
		if err := s.transcripts.DeleteTranscript(ctx, m.StoragePath); err != nil {
			// 文稿删除失败不阻断，记录留痕后继续删除记录
			s.logger.Warn("Failed to delete transcript object",
				"meeting_id", meetingID,
				"key", m.StoragePath,
				"error", err,
			)
		}
	}

	if err := s.meetings.Delete(meetingID); err != nil {
		return fmt.Errorf("failed to delete meeting record: %w", err)
	}

	s.logger.Info("Meeting deleted", "meeting_id", meetingID)
	return nil
}
