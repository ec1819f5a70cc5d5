package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/config"
	"github.com/meetnote/backend/internal/infrastructure/log"
	"github.com/meetnote/backend/internal/infrastructure/tokens"
)

// 关联历史会议上下文的分隔标记
const (
	relatedContextHeader = "[이전 회의 참고 내용]"
	relatedContextFooter = "[이전 회의 참고 내용 끝]"
)

// Augmentor 检索增强器
// 在抽取提示词前为当前会议文稿补充相关历史会议内容
type Augmentor struct {
	embedder   Embedder
	store      VectorStore
	estimator  *tokens.Estimator
	topK       int
	tokenLimit int
	logger     *slog.Logger
}

// NewAugmentor 创建检索增强器
func NewAugmentor(embedder Embedder, store VectorStore, cfg *config.PipelineConfig) (*Augmentor, error) {
	estimator, err := tokens.GetEstimator()
	if err != nil {
		return nil, fmt.Errorf("failed to init token estimator: %w", err)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	tokenLimit := cfg.ContextTokenLimit
	if tokenLimit <= 0 {
		tokenLimit = 2000
	}

	return &Augmentor{
		embedder:   embedder,
		store:      store,
		estimator:  estimator,
		topK:       topK,
		tokenLimit: tokenLimit,
		logger:     log.NewModuleLogger("pipeline", "augmentor"),
	}, nil
}

// Augment 为文稿补充相关历史会议上下文
// 尽力而为：任何环节失败都返回原始文稿，绝不阻断抽取流程
// excludeMeetingID 排除当前会议自身，避免自引用
func (a *Augmentor) Augment(ctx context.Context, transcript, userID, excludeMeetingID string) string {
	queryVector, err := a.embedder.EmbedText(ctx, transcript)
	if err != nil {
		a.logger.Warn("Failed to embed transcript for augmentation, skipping",
			"error", err,
		)
		return transcript
	}

	results, err := a.store.Search(ctx, queryVector, userID, excludeMeetingID, a.topK)
	if err != nil {
		a.logger.Warn("Failed to search related meetings, skipping augmentation",
			"error", err,
		)
		return transcript
	}
	if len(results) == 0 {
		a.logger.Debug("No related past meetings found")
		return transcript
	}

	section := a.buildContextSection(results)
	if section == "" {
		return transcript
	}

	a.logger.Info("Augmented transcript with related meetings",
		"related", len(results),
	)

	return transcript + "\n\n" + section
}

// buildContextSection 构建关联历史会议片段区块，按 token 预算截断
func (a *Augmentor) buildContextSection(results []*meeting.SearchResult) string {
	var b strings.Builder
	b.WriteString(relatedContextHeader)
	b.WriteString("\n")

	used := a.estimator.CountTokens(relatedContextHeader + relatedContextFooter)
	appended := 0

	for _, r := range results {
		entry := fmt.Sprintf("- (%s, 유사도 %.2f, 화자: %s) %s\n",
			r.MeetingDate,
			r.Score,
			strings.Join(r.Speakers, ", "),
			r.Text,
		)

		cost := a.estimator.CountTokens(entry)
		if used+cost > a.tokenLimit {
			a.logger.Debug("Context token budget reached",
				"used", used,
				"limit", a.tokenLimit,
			)
			break
		}

		b.WriteString(entry)
		used += cost
		appended++
	}

	if appended == 0 {
		return ""
	}

	b.WriteString(relatedContextFooter)
	return b.String()
}
