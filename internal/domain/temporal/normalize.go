package temporal

import (
	"strings"
	"time"

	"github.com/meetnote/backend/internal/domain/meeting"
)

// noEndMarker LLM 在没有结束时间时返回的占位文本
const noEndMarker = "없음"

// RawItem LLM 抽取出的原始条目，日期字段仍为自由文本
type RawItem struct {
	Text  string `json:"text"`
	Start string `json:"start"`
	End   string `json:"end"`
	Place string `json:"place,omitempty"`
}

// NormalizeItem 将原始条目中的相对日期表达解析为绝对时间
// 规则：
//   - start 解析成功且 end 缺失（空串或 "없음"）时，end 默认为 start + 1 小时
//   - end 有文本但解析失败时保持 null，不套用默认值
//   - 任何解析失败都得到 null 字段，绝不报错
func NormalizeItem(raw RawItem, ref time.Time) meeting.ExtractionItem {
	item := meeting.ExtractionItem{
		Text:  strings.TrimSpace(raw.Text),
		Place: strings.TrimSpace(raw.Place),
	}

	if start, ok := Resolve(raw.Start, ref); ok {
		item.Start = &start
	}

	endText := strings.TrimSpace(raw.End)
	if endText == "" || endText == noEndMarker {
		if item.Start != nil {
			end := item.Start.Add(time.Hour)
			item.End = &end
		}
		return item
	}

	if end, ok := Resolve(endText, ref); ok {
		item.End = &end
	}
	return item
}

// NormalizeItems 批量规范化，保持输入顺序
func NormalizeItems(raws []RawItem, ref time.Time) []meeting.ExtractionItem {
	items := make([]meeting.ExtractionItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, NormalizeItem(raw, ref))
	}
	return items
}
