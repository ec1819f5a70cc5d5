//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"
	"github.com/meetnote/backend/internal/application"
	"github.com/meetnote/backend/internal/infrastructure"
	"github.com/meetnote/backend/internal/interfaces"
)

// InitializeAll 初始化所有服务（HTTP + MCP）
func InitializeAll() (*App, error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		NewApp,                     // 组合所有服务的应用结构
	)
	return nil, nil
}
