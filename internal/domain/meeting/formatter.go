package meeting

import "strings"

// UnknownSpeaker 缺失说话人时的占位标识
const UnknownSpeaker = "Unknown"

// FormatSegments 将转写片段格式化为带说话人标签的文本
// 每行形如 "SPEAKER_00: 内容"，空文本片段被跳过；纯函数，无共享状态
func FormatSegments(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		lines = append(lines, speaker+": "+text)
	}
	return strings.Join(lines, "\n")
}

// CollectSpeakers 收集片段区间内出现的说话人集合
// 返回顺序为首次出现顺序
func CollectSpeakers(segments []Segment) []string {
	seen := make(map[string]bool, 4)
	speakers := make([]string, 0, 4)
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		if !seen[speaker] {
			seen[speaker] = true
			speakers = append(speakers, speaker)
		}
	}
	return speakers
}
