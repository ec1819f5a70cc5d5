package pipeline

import "fmt"

// 抽取提示词，移植自原有韩语模板
// 相对日期表达由 LLM 原样输出，绝对时间解析交给 temporal 包

// relativeDateInstruction 日期字段的填写说明
const relativeDateInstruction = `남은 기간의 상대적 표현 (예: "3일 후", "다음 주 금요일 오전 10시") 또는 정확한 시점을 알면 "yyyy-MM-ddTHH:mm:ss" 형식`

// summarizeSystemPrompt 요약 task 系统提示词
const summarizeSystemPrompt = `너는 회의록 요약 전문가다.`

// summarizeUserTemplate 요약 task 用户提示词
const summarizeUserTemplate = `다음 회의록을 읽고, JSON으로 요약하라.

반드시 아래와 같은 JSON으로 응답:
{
    "subject": "회의 주제",
    "summary": "회의 내용 요약"
}

네가 요약할 회의록:
%s
각 발언은 "화자: 내용" 형식임.`

// scheduleSystemPrompt 일정 추출 task 系统提示词
const scheduleSystemPrompt = `너는 일정을 추출하는 전문가다.`

// scheduleUserTemplate 일정 추출 task 用户提示词
const scheduleUserTemplate = `다음 회의 내용에서 일정을 추출하라.
현재 회의 날짜는 %s이다.

반드시 아래와 같은 JSON 형식으로 응답:
{
    "items": [
        {
            "text": "일정 내용",
            "start": 일정 시작까지 ` + relativeDateInstruction + `,
            "end": 일정 종료까지 ` + relativeDateInstruction + `,
            "place": 장소
        }
    ]
}
단, start, end, place에 대한 내용이 없다면 없는 값에 null 입력

네가 일정을 추출할 회의록:
%s
각 발언은 "화자: 내용" 형식임.`

// todoSystemPrompt 할일 추출 task 系统提示词
const todoSystemPrompt = `너는 TODO 리스트를 추출하는 전문가다.`

// todoUserTemplate 할일 추출 task 用户提示词
const todoUserTemplate = `다음 회의 내용에서 할 일(TODO)을 추출하라.
현재 회의 날짜는 %s이다.

반드시 아래와 같은 JSON 형식으로 응답:
{
    "items": [
        {
            "text": "할 일 내용",
            "start": 할 일 시작까지 ` + relativeDateInstruction + `,
            "end": 할 일 종료까지 ` + relativeDateInstruction + `
        }
    ]
}
단, start, end에 대한 내용이 없다면 없는 값에 null 입력

네가 TODO를 추출할 회의록:
%s
각 발언은 "화자: 내용" 형식임.`

// buildSummarizePrompt 构建요약提示词
func buildSummarizePrompt(transcript string) (system, user string) {
	return summarizeSystemPrompt, fmt.Sprintf(summarizeUserTemplate, transcript)
}

// buildSchedulePrompt 构建일정提示词
func buildSchedulePrompt(transcript, meetingDate string) (system, user string) {
	return scheduleSystemPrompt, fmt.Sprintf(scheduleUserTemplate, meetingDate, transcript)
}

// buildTodoPrompt 构建할일提示词
func buildTodoPrompt(transcript, meetingDate string) (system, user string) {
	return todoSystemPrompt, fmt.Sprintf(todoUserTemplate, meetingDate, transcript)
}
