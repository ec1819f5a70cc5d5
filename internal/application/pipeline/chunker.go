package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/log"
	"github.com/meetnote/backend/internal/infrastructure/segmenter"
)

// TopicSegmenter 语义分段协作方
type TopicSegmenter interface {
	Segment(ctx context.Context, sentences []string) ([]segmenter.Boundary, error)
}

// Chunker 基于语义边界的会议知识块构建器
type Chunker struct {
	segmenter TopicSegmenter
	logger    *slog.Logger
}

// NewChunker 创建知识块构建器
func NewChunker(seg TopicSegmenter) *Chunker {
	return &Chunker{
		segmenter: seg,
		logger:    log.NewModuleLogger("pipeline", "chunker"),
	}
}

// ChunkSegments 将发言片段聚合为带上下文的知识块
// 分段服务失败或返回非法边界时，退化为覆盖全部片段的单块
func (c *Chunker) ChunkSegments(ctx context.Context, segments []meeting.Segment) []meeting.Chunk {
	// 与格式化规则一致：跳过空文本片段
	kept := make([]meeting.Segment, 0, len(segments))
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = meeting.UnknownSpeaker
		}
		kept = append(kept, seg)
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, text))
	}

	if len(kept) == 0 {
		return nil
	}

	boundaries, err := c.segmenter.Segment(ctx, lines)
	if err != nil {
		c.logger.Warn("Segmenter unavailable, falling back to single chunk",
			"segments", len(kept),
			"error", err,
		)
		boundaries = singleBoundary(len(kept))
	} else if !validBoundaries(boundaries, len(kept)) {
		c.logger.Warn("Segmenter returned invalid boundaries, falling back to single chunk",
			"segments", len(kept),
			"boundaries", len(boundaries),
		)
		boundaries = singleBoundary(len(kept))
	}

	chunks := make([]meeting.Chunk, 0, len(boundaries))
	for i, b := range boundaries {
		group := kept[b.StartIndex:b.EndIndex]

		chunk := meeting.Chunk{
			ID:         uuid.New().String(),
			Index:      i,
			Text:       strings.Join(lines[b.StartIndex:b.EndIndex], "\n"),
			Speakers:   meeting.CollectSpeakers(group),
			Start:      group[0].Start,
			End:        group[len(group)-1].End,
			StartIndex: b.StartIndex,
			EndIndex:   b.EndIndex,
		}
		chunks = append(chunks, chunk)
	}

	c.logger.Info("Chunked meeting segments",
		"segments", len(kept),
		"chunks", len(chunks),
	)

	return chunks
}

// singleBoundary 覆盖全部片段的单块边界
func singleBoundary(n int) []segmenter.Boundary {
	return []segmenter.Boundary{{StartIndex: 0, EndIndex: n}}
}

// validBoundaries 校验边界：单调递增、互不重叠、恰好覆盖 [0, n)
func validBoundaries(boundaries []segmenter.Boundary, n int) bool {
	if len(boundaries) == 0 {
		return false
	}
	if boundaries[0].StartIndex != 0 {
		return false
	}
	if boundaries[len(boundaries)-1].EndIndex != n {
		return false
	}
	for i, b := range boundaries {
		if b.StartIndex >= b.EndIndex {
			return false
		}
		if i > 0 && b.StartIndex != boundaries[i-1].EndIndex {
			return false
		}
	}
	return true
}
