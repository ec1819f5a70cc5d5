package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// Embedder 文本向量化协作方
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore 向量存储协作方
type VectorStore interface {
	UpsertChunks(ctx context.Context, m *meeting.Meeting, chunks []meeting.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, userID, excludeMeetingID string, limit int) ([]*meeting.SearchResult, error)
	DeleteMeeting(ctx context.Context, meetingID string) error
}

// Indexer 知识块向量索引器
type Indexer struct {
	embedder Embedder
	store    VectorStore
	logger   *slog.Logger
}

// NewIndexer 创建索引器
func NewIndexer(embedder Embedder, store VectorStore) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		logger:   log.NewModuleLogger("pipeline", "indexer"),
	}
}

// IndexChunks 向量化并写入知识块，返回实际写入的块数
// 个别块的向量为空时跳过该块并告警，不中断其余块
func (i *Indexer) IndexChunks(ctx context.Context, m *meeting.Meeting, chunks []meeting.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for idx, chunk := range chunks {
		texts[idx] = chunk.Text
	}

	vectors, err := i.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	keptChunks := make([]meeting.Chunk, 0, len(chunks))
	keptVectors := make([][]float32, 0, len(vectors))
	for idx, vec := range vectors {
		if len(vec) == 0 {
			i.logger.Warn("Skipping chunk with empty embedding",
				"meeting_id", m.ID,
				"chunk_index", chunks[idx].Index,
			)
			continue
		}
		keptChunks = append(keptChunks, chunks[idx])
		keptVectors = append(keptVectors, vec)
	}

	if len(keptChunks) == 0 {
		return 0, fmt.Errorf("no chunks left after embedding")
	}

	if err := i.store.UpsertChunks(ctx, m, keptChunks, keptVectors); err != nil {
		return 0, err
	}

	return len(keptChunks), nil
}

// Purge 删除某个会议的全部向量
func (i *Indexer) Purge(ctx context.Context, meetingID string) error {
	return i.store.DeleteMeeting(ctx, meetingID)
}
