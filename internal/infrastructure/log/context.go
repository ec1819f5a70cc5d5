package log

import (
	"context"
	"log/slog"
)

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID = "request_id"

	// UserContextID 用户 ID
	UserContextID = "user_id"

	// MeetingContextID 会议 ID
	MeetingContextID = "meeting_id"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithUserID 在上下文中添加用户 ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserContextID, userID)
}

// WithMeetingID 在上下文中添加会议 ID
func WithMeetingID(ctx context.Context, meetingID string) context.Context {
	return context.WithValue(ctx, MeetingContextID, meetingID)
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if requestID := ctx.Value(RequestContextID); requestID != nil {
		attrs = append(attrs, slog.String("request_id", requestID.(string)))
	}
	if userID := ctx.Value(UserContextID); userID != nil {
		attrs = append(attrs, slog.String("user_id", userID.(string)))
	}
	if meetingID := ctx.Value(MeetingContextID); meetingID != nil {
		attrs = append(attrs, slog.String("meeting_id", meetingID.(string)))
	}

	return attrs
}
