package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// 相对日期模式正则
// 链式匹配按声明顺序进行，先命中者生效。顺序不能调换：模式之间存在重叠
//（如 "다음 달 3일" 同时包含 "3일"，必须先于数字+单位模式匹配）
var (
	isoPattern          = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
	weekdayPattern      = regexp.MustCompile(`^\s*(이번|다음|다다음|다다다음)\s*주(?:에\s+오는)?\s*(월|화|수|목|금|토|일)요일?`)
	monthDayPattern     = regexp.MustCompile(`^\s*(이번|다음)\s*달\s*(\d{1,2})일`)
	yearMonthDayPattern = regexp.MustCompile(`^\s*(내년|올해)\s*(\d{1,2})월\s*(\d{1,2})일`)
	numberUnitPattern   = regexp.MustCompile(`^\s*(\d+)\s*(일|주|개월|달|월|년|시간|분)\s*(후|뒤|전|앞)?`)
)

// timePattern 时刻模式（独立于日期模式运行）
// 捕获 "간" 用于排除 "N시간"（时长）被误判为 "N시"（时刻）
var timePattern = regexp.MustCompile(`(오전|오후)?\s*(\d{1,2})시(간)?(?:\s*(\d{1,2})분)?`)

// weekdayNumbers 요일 → 周内序号（월=0 … 일=6）
var weekdayNumbers = map[string]int{
	"월": 0, "화": 1, "수": 2, "목": 3, "금": 4, "토": 5, "일": 6,
}

// weekMultipliers 주 前缀 → 周偏移
var weekMultipliers = map[string]int{
	"이번": 0, "다음": 1, "다다음": 2, "다다다음": 3,
}

// Resolve 将自由文本的日期表达解析为绝对时间
// 确定性纯函数，不做任何网络调用；解析失败返回 ok=false，绝不 panic
func Resolve(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	// 绝对 ISO 格式直接解析，跳过所有其他模式
	if isoPattern.MatchString(text) {
		t, err := time.ParseInLocation("2006-01-02T15:04:05", text, ref.Location())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	date, matched, ok := resolveDate(text, ref)
	if !matched {
		date, ok = fallbackParse(text, ref)
	}
	if !ok {
		return time.Time{}, false
	}

	// 时刻提取独立进行，命中则与已解析日期合并
	if hour, minute, found := extractTime(text); found {
		date = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
	}

	return date, true
}

// resolveDate 依序尝试各相对日期模式
// matched 表示某个模式命中；命中但组合非法（如 2월 30일）时 ok 为 false，
// 整体结果为 null，不再落入后续模式或兜底解析器
func resolveDate(text string, ref time.Time) (date time.Time, matched, ok bool) {
	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		return resolveWeekday(m[1], m[2], ref), true, true
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		months := 0
		if m[1] == "다음" {
			months = 1
		}
		day, _ := strconv.Atoi(m[2])
		// 短月份里不存在的日期会溢出到下个月，这里统一钳到 28 日（已记录的局限）
		if day > 28 {
			day = 28
		}
		target := addMonths(ref, months)
		return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, ref.Location()), true, true
	}

	if m := yearMonthDayPattern.FindStringSubmatch(text); m != nil {
		year := ref.Year()
		if m[1] == "내년" {
			year++
		}
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > daysInMonth(year, time.Month(month)) {
			return time.Time{}, true, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location()), true, true
	}

	if m := numberUnitPattern.FindStringSubmatch(text); m != nil {
		return resolveNumberUnit(m, ref), true, true
	}

	return time.Time{}, false, false
}

// resolveWeekday 解析 "{이번|다음|다다음|다다다음} 주 {요일}요일"
// 目标要早于或等于当前요일时先滚动 7 天，保证结果不早于基准时间
func resolveWeekday(period, weekday string, ref time.Time) time.Time {
	target := weekdayNumbers[weekday]
	current := (int(ref.Weekday()) + 6) % 7 // time.Weekday 以周日为 0，转成 월=0

	daysAhead := target - current
	if daysAhead <= 0 {
		daysAhead += 7
	}

	d := ref.AddDate(0, 0, daysAhead+weekMultipliers[period]*7)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ref.Location())
}

// resolveNumberUnit 解析 "{N}{단위}{후|뒤|전|앞}"
// 月/年做日历感知运算，月运算按月末钳位保留 day-of-month
func resolveNumberUnit(m []string, ref time.Time) time.Time {
	n, _ := strconv.Atoi(m[1])
	if m[3] == "전" || m[3] == "앞" {
		n = -n
	}

	switch m[2] {
	case "일":
		return ref.AddDate(0, 0, n)
	case "주":
		return ref.AddDate(0, 0, n*7)
	case "달", "월", "개월":
		return addMonths(ref, n)
	case "년":
		return time.Date(ref.Year()+n, ref.Month(), ref.Day(),
			ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
	case "시간":
		return ref.Add(time.Duration(n) * time.Hour)
	case "분":
		return ref.Add(time.Duration(n) * time.Minute)
	}
	return ref
}

// addMonths 日历感知的月份加减
// 结果月份没有对应日期时钳到该月最后一天（如 1月31日 + 1个月 = 2月28/29日）
func addMonths(t time.Time, months int) time.Time {
	month := int(t.Month()) - 1 + months
	year := t.Year() + month/12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}

	day := t.Day()
	if dim := daysInMonth(year, time.Month(month+1)); day > dim {
		day = dim
	}

	return time.Date(year, time.Month(month+1), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth 返回指定年月的天数
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// extractTime 提取 "{오전|오후}?{H}시{M}분?" 时刻
// 12 小时制转 24 小时制：오후在小于 12 时加 12，오전 12시 为 0 时
func extractTime(text string) (hour, minute int, ok bool) {
	for _, m := range timePattern.FindAllStringSubmatch(text, -1) {
		if m[3] == "간" {
			// "N시간" 是时长，交给数字+单位模式处理
			continue
		}
		hour, _ = strconv.Atoi(m[2])
		if m[1] == "오후" && hour < 12 {
			hour += 12
		} else if m[1] == "오전" && hour == 12 {
			hour = 0
		}
		if m[4] != "" {
			minute, _ = strconv.Atoi(m[4])
		}
		return hour, minute, true
	}
	return 0, 0, false
}

// fallbackParse 模式链全部未命中时，交给通用自然语言日期解析器
// 固定配置：年-月-日顺序、以 ref 为相对基准、倾向未来、韩语
func fallbackParse(text string, ref time.Time) (time.Time, bool) {
	cfg := &dateparser.Configuration{
		CurrentTime:         ref,
		Languages:           []string{"ko"},
		DateOrder:           dateparser.YMD,
		PreferredDateSource: dateparser.Future,
	}

	dt, err := dateparser.Parse(cfg, text)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, false
	}
	return dt.Time, true
}
