package pipeline

import (
	"context"
	"log/slog"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// SearchService 会议语义搜索服务
type SearchService struct {
	embedder Embedder
	store    VectorStore
	logger   *slog.Logger
}

// NewSearchService 创建搜索服务
func NewSearchService(embedder Embedder, store VectorStore) *SearchService {
	return &SearchService{
		embedder: embedder,
		store:    store,
		logger:   log.NewModuleLogger("pipeline", "search"),
	}
}

// SearchMeetings 在会议历史中做语义搜索
// userID 为空时不限定用户，跨全部会议检索
// 向量化或检索失败时返回空结果，不向调用方抛错
func (s *SearchService) SearchMeetings(ctx context.Context, query, userID string, topK int) []*meeting.SearchResult {
	if query == "" {
		return nil
	}
	if topK <= 0 {
		topK = 5
	}

	queryVector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("Failed to embed search query",
			"error", err,
		)
		return nil
	}

	results, err := s.store.Search(ctx, queryVector, userID, "", topK)
	if err != nil {
		s.logger.Error("Failed to search meetings",
			"error", err,
		)
		return nil
	}

	s.logger.Info("Meeting search completed",
		"user_id", userID,
		"results", len(results),
	)

	return results
}
