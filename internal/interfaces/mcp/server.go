package mcp

import (
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meetnote/backend/internal/application/pipeline"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server  *mcp.Server
	handler http.Handler
	search  *pipeline.SearchService
}

// NewServer 创建 MCP 服务器
func NewServer(search *pipeline.SearchService) *MCPServer {
	// 创建 MCP 服务器实例
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "meetnote-backend",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	// 创建服务器实例（用于闭包捕获依赖）
	mcpServer := &MCPServer{
		server: server,
		search: search,
	}

	// 注册工具：search_meetings
	mcp.AddTool(server, &mcp.Tool{
		Name: "search_meetings",
		Description: `Search through a user's past meeting transcripts to find relevant discussion context.

Use this tool when you need to:
- Find what was discussed about a topic in earlier meetings
- Look up prior decisions, action items, or agreements
- Retrieve context from past meetings before answering questions about them

Parameters:
- query (string, required): Natural language description of what you're looking for. Korean queries work best since transcripts are in Korean.
- user_id (string, optional): The user whose meetings should be searched. Searches across all users when omitted.
- limit (int, optional): Maximum number of results to return (1-10, default: 3)

Returns: List of relevant transcript chunks with meeting date, speakers, relevance, and time range within the meeting.`,
	}, mcpServer.searchMeetingsTool)

	// 创建 SSE Handler
	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Start 启动服务器（HTTP/SSE 模式）
// 注意：MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
func (s *MCPServer) Start() error {
	fmt.Println("MCP server ready (HTTP/SSE mode)")
	return nil
}

// Stop 停止服务器
func (s *MCPServer) Stop() error {
	// HTTP/SSE 模式下，由 HTTP 服务器统一管理生命周期
	return nil
}
