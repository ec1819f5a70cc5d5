package pipeline

import (
	"github.com/google/wire"

	"github.com/meetnote/backend/internal/infrastructure/embedding"
	"github.com/meetnote/backend/internal/infrastructure/llm"
	"github.com/meetnote/backend/internal/infrastructure/objectstore"
	"github.com/meetnote/backend/internal/infrastructure/segmenter"
	"github.com/meetnote/backend/internal/infrastructure/vector"
)

// ProvideTopicSegmenter 绑定分段服务客户端
func ProvideTopicSegmenter(c *segmenter.Client) TopicSegmenter { return c }

// ProvideEmbedder 绑定向量化客户端
func ProvideEmbedder(c *embedding.Client) Embedder { return c }

// ProvideCompleter 绑定 LLM 客户端
func ProvideCompleter(c *llm.Client) Completer { return c }

// ProvideVectorStore 绑定向量存储
func ProvideVectorStore(s *vector.Store) VectorStore { return s }

// ProvideTranscriptStore 绑定文稿对象存储
func ProvideTranscriptStore(s *objectstore.Store) TranscriptStore { return s }

// ProviderSet 会议处理管线 ProviderSet
var ProviderSet = wire.NewSet(
	segmenter.NewClient,
	embedding.NewClient,
	llm.NewClient,
	vector.NewStore,
	objectstore.NewStore,
	ProvideTopicSegmenter,
	ProvideEmbedder,
	ProvideCompleter,
	ProvideVectorStore,
	ProvideTranscriptStore,
	NewChunker,
	NewIndexer,
	NewAugmentor,
	NewOrchestrator,
	NewService,
	NewSearchService,
)
