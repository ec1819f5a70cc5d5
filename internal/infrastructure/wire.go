package infrastructure

import (
	"github.com/google/wire"
	"github.com/meetnote/backend/internal/infrastructure/config"
	"github.com/meetnote/backend/internal/infrastructure/storage"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	// 外部服务客户端（embedding/llm/segmenter/vector/objectstore）
	// 由 application/pipeline 的 ProviderSet 携带，随接口绑定一起注入
)
