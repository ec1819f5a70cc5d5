package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchMeetingsInput 会议检索工具输入
type SearchMeetingsInput struct {
	Query  string `json:"query" jsonschema:"Search query - describe what you're looking for in natural language (required)"`
	UserID string `json:"user_id,omitempty" jsonschema:"User whose meetings should be searched; searches all users when omitted"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return, defaults to 3, max 10"`
}

// SearchMeetingsOutput 会议检索工具输出
type SearchMeetingsOutput struct {
	Results    []*MeetingSearchResult `json:"results" jsonschema:"List of relevant transcript chunks from past meetings"`
	TotalCount int                    `json:"total_count" jsonschema:"Total number of results found"`
}

// MeetingSearchResult 会议检索结果（精简版，只包含对 AI 有用的信息）
type MeetingSearchResult struct {
	MeetingDate string `json:"meeting_date" jsonschema:"Date of the meeting (YYYY-MM-DD)"`
	Text        string `json:"text" jsonschema:"Transcript chunk text with speaker labels"`
	Speakers    string `json:"speakers,omitempty" jsonschema:"Speakers appearing in this chunk, comma separated"`
	Relevance   string `json:"relevance" jsonschema:"Relevance level: high/medium/low"`
	TimeRange   string `json:"time_range,omitempty" jsonschema:"Position within the meeting, e.g. '03:10-05:42'"`
}

// searchMeetingsTool 会议检索工具实现
func (s *MCPServer) searchMeetingsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchMeetingsInput,
) (*mcp.CallToolResult, SearchMeetingsOutput, error) {
	output := SearchMeetingsOutput{
		Results: []*MeetingSearchResult{},
	}

	// 验证输入（user_id 可缺省，缺省时跨全部用户检索）
	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	// 设置默认值（默认 3 个，最多 10 个，避免上下文过载）
	limit := input.Limit
	if limit <= 0 {
		limit = 3
	}
	if limit > 10 {
		limit = 10
	}

	// 执行检索（不排除任何会议，MCP 调用方不在处理管线内）
	results := s.search.SearchMeetings(ctx, input.Query, input.UserID, limit)

	// 转换结果（精简数据）
	output.Results = make([]*MeetingSearchResult, 0, len(results))
	for _, r := range results {
		output.Results = append(output.Results, &MeetingSearchResult{
			MeetingDate: r.MeetingDate,
			Text:        truncateText(r.Text, 500),
			Speakers:    strings.Join(r.Speakers, ", "),
			Relevance:   scoreToRelevance(r.Score),
			TimeRange:   formatTimeRange(r.Start, r.End),
		})
	}
	output.TotalCount = len(output.Results)

	// 返回 nil，SDK 会自动序列化 output
	return nil, output, nil
}

// truncateText 截断文本到指定字符数（按 rune 计，避免截断韩文）
func truncateText(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}

// scoreToRelevance 将分数转换为相关性等级
func scoreToRelevance(score float32) string {
	if score >= 0.7 {
		return "high"
	}
	if score >= 0.4 {
		return "medium"
	}
	return "low"
}

// formatTimeRange 将秒偏移格式化为 mm:ss-mm:ss
func formatTimeRange(start, end float64) string {
	if start == 0 && end == 0 {
		return ""
	}
	return fmt.Sprintf("%s-%s", formatOffset(start), formatOffset(end))
}

// formatOffset 将秒偏移格式化为 mm:ss，超过一小时为 h:mm:ss
func formatOffset(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
