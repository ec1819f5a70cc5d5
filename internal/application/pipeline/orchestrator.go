package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/domain/temporal"
	"github.com/meetnote/backend/internal/infrastructure/config"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// Completer LLM 补全协作方
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Orchestrator 三路并发抽取编排器
// 요약、일정、할일三个任务各自独立，任一失败以默认值顶替，整体从不报错
type Orchestrator struct {
	llm         Completer
	taskTimeout time.Duration
	logger      *slog.Logger
}

// NewOrchestrator 创建抽取编排器
func NewOrchestrator(llm Completer, cfg *config.PipelineConfig) *Orchestrator {
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &Orchestrator{
		llm:         llm,
		taskTimeout: timeout,
		logger:      log.NewModuleLogger("pipeline", "orchestrator"),
	}
}

// itemsEnvelope LLM 返回的条目外层结构
type itemsEnvelope struct {
	Items []temporal.RawItem `json:"items"`
}

// Extract 并发执行三个抽取任务并归一化日期
// meetingDate 当天 00:00:00 作为相对日期的解析基准
func (o *Orchestrator) Extract(ctx context.Context, transcript string, meetingDate time.Time) *meeting.ExtractionResult {
	ref := time.Date(meetingDate.Year(), meetingDate.Month(), meetingDate.Day(), 0, 0, 0, 0, meetingDate.Location())
	dateStr := ref.Format("2006-01-02")

	result := &meeting.ExtractionResult{
		Summary:  meeting.DefaultSummary(),
		Todos:    []meeting.ExtractionItem{},
		Schedule: []meeting.ExtractionItem{},
	}

	// 任务失败由各自的默认值兜底，errgroup 仅用于汇合
	var g errgroup.Group

	g.Go(func() error {
		if summary, ok := o.summarize(ctx, transcript); ok {
			result.Summary = summary
		}
		return nil
	})

	g.Go(func() error {
		system, user := buildSchedulePrompt(transcript, dateStr)
		if raws, ok := o.extractItems(ctx, "schedule", system, user); ok {
			result.Schedule = temporal.NormalizeItems(raws, ref)
		}
		return nil
	})

	g.Go(func() error {
		system, user := buildTodoPrompt(transcript, dateStr)
		if raws, ok := o.extractItems(ctx, "todos", system, user); ok {
			result.Todos = temporal.NormalizeItems(raws, ref)
		}
		return nil
	})

	_ = g.Wait()

	o.logger.Info("Extraction completed",
		"todos", len(result.Todos),
		"schedule", len(result.Schedule),
		"summary_ok", result.Summary.Summary != meeting.DefaultSummary().Summary,
	)

	return result
}

// summarize 요약 task
func (o *Orchestrator) summarize(ctx context.Context, transcript string) (meeting.Summary, bool) {
	tctx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	defer cancel()

	system, user := buildSummarizePrompt(transcript)
	content, err := o.llm.Complete(tctx, system, user)
	if err != nil {
		o.logger.Warn("Summarize task failed, using default",
			"error", err,
		)
		return meeting.Summary{}, false
	}

	var summary meeting.Summary
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &summary); err != nil {
		o.logger.Warn("Failed to parse summary JSON, using default",
			"error", err,
		)
		return meeting.Summary{}, false
	}

	return summary, true
}

// extractItems 일정/할일 task 共用的抽取流程
func (o *Orchestrator) extractItems(ctx context.Context, task, system, user string) ([]temporal.RawItem, bool) {
	tctx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	defer cancel()

	content, err := o.llm.Complete(tctx, system, user)
	if err != nil {
		o.logger.Warn("Extraction task failed, using empty list",
			"task", task,
			"error", err,
		)
		return nil, false
	}

	var envelope itemsEnvelope
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &envelope); err != nil {
		o.logger.Warn("Failed to parse extraction JSON, using empty list",
			"task", task,
			"error", err,
		)
		return nil, false
	}

	return envelope.Items, true
}

// stripCodeFences 去除 LLM 回复外层的 Markdown 代码栅栏
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// 去掉首行 ``` 或 ```json
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}
