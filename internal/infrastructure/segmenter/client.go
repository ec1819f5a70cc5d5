package segmenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meetnote/backend/internal/infrastructure/config"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// Boundary 语义分段边界，片段索引区间为 [StartIndex, EndIndex)
type Boundary struct {
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Reason     string `json:"reason,omitempty"`
}

// Client 语义分段服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建分段服务客户端
func NewClient(cfg *config.SegmenterConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.NewModuleLogger("segmenter", "client"),
	}
}

// segmentRequest 分段请求
type segmentRequest struct {
	Sentences []string `json:"sentences"`
}

// segmentResponse 分段响应
type segmentResponse struct {
	Boundaries []Boundary `json:"boundaries"`
}

// Segment 请求语义分段边界
// sentences 为说话人标注后的文本行，返回的边界应覆盖全部索引且互不重叠
func (c *Client) Segment(ctx context.Context, sentences []string) ([]Boundary, error) {
	if len(sentences) == 0 {
		return nil, fmt.Errorf("sentences cannot be empty")
	}

	jsonData, err := json.Marshal(segmentRequest{Sentences: sentences})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/segment", c.baseURL)

	c.logger.Debug("Sending segmentation request",
		"url", url,
		"sentences", len(sentences),
	)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segmenter request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Segmenter returned error",
			"status_code", resp.StatusCode,
			"response_body", string(body),
		)
		return nil, fmt.Errorf("segmenter returned status %d: %s", resp.StatusCode, string(body))
	}

	var segResp segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&segResp); err != nil {
		return nil, fmt.Errorf("failed to decode segmenter response: %w", err)
	}

	c.logger.Info("Segmentation completed",
		"sentences", len(sentences),
		"boundaries", len(segResp.Boundaries),
	)

	return segResp.Boundaries, nil
}
