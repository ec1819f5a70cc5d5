package meeting

import "time"

// Segment 转写片段
// 由外部转写+说话人分离服务产生，归属于单次流水线调用，创建后不可变
type Segment struct {
	Speaker string  `json:"speaker"` // 说话人标识，如 SPEAKER_00
	Text    string  `json:"text"`    // 片段文本
	Start   float64 `json:"start"`   // 开始时间（秒）
	End     float64 `json:"end"`     // 结束时间（秒）
}

// Chunk 主题连贯的片段组
// 由连续的 Segment 区间聚合而来；所有 Chunk 恰好无缝无重叠地覆盖整个片段序列
type Chunk struct {
	ID         string   // UUID，同时作为向量库 point_id
	Index      int      // 在会议中的序号
	Text       string   // 拼接后的带说话人文本
	Speakers   []string // 出现的说话人集合（去重）
	Start      float64  // 区间内最小开始时间（秒）
	End        float64  // 区间内最大结束时间（秒）
	StartIndex int      // 源片段区间起点（含）
	EndIndex   int      // 源片段区间终点（不含）
}

// SegmentCount 返回该 Chunk 覆盖的片段数量
func (c *Chunk) SegmentCount() int {
	return c.EndIndex - c.StartIndex
}

// ExtractionItem 抽取条目（待办或日程）
// Start/End 为已解析的绝对时间；LLM 返回的原始相对日期文本不会出现在这里
type ExtractionItem struct {
	Text  string     `json:"text"`
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
	Place string     `json:"place,omitempty"` // 仅日程条目使用
}

// Summary 会议摘要
type Summary struct {
	Subject string `json:"subject"`
	Summary string `json:"summary"`
}

// DefaultSummary 摘要任务失败时的默认值
func DefaultSummary() Summary {
	return Summary{Subject: "", Summary: "요약 실패"}
}

// ExtractionResult 单次请求的抽取结果
// 无论多少任务失败，结构始终完整
type ExtractionResult struct {
	Summary  Summary          `json:"summary"`
	Todos    []ExtractionItem `json:"todos"`
	Schedule []ExtractionItem `json:"schedule"`
}

// Meeting 会议记录
// SQLite 中的元数据行；原始转写文本持久化在对象存储中
type Meeting struct {
	ID          string    // UUID，检索排除与向量清除都以它为准
	UserID      string    // 所属用户
	MeetingDate string    // 会议日期（YYYY-MM-DD）
	Title       string    // 会议标题
	StoragePath string    // 转写文本的对象存储 key
	ChunkCount  int       // 已索引的 Chunk 数量
	Indexed     bool      // 向量索引是否写入成功
	CreatedAt   time.Time // 创建时间
}

// SearchResult 历史会议检索结果
type SearchResult struct {
	Score       float32  `json:"score"`
	Text        string   `json:"text"`
	Speakers    []string `json:"speakers"`
	MeetingID   string   `json:"meeting_id"`
	MeetingDate string   `json:"meeting_date"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
}
