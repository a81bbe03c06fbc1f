package models

import "time"

// AttemptLog 记录了编排器对外部后端发起的一次请求尝试。
// 每次尝试都会被写入日志，并且可以被发布到 Kafka 供离线诊断。
type AttemptLog struct {
	TraceID    string    `json:"trace_id,omitempty"`
	Intent     string    `json:"intent"`
	Strategy   string    `json:"strategy"`
	Attempt    int       `json:"attempt"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Outcome    string    `json:"outcome"` // "success" 或错误类型
	DurationMs int64     `json:"duration_ms"`
	Body       string    `json:"body,omitempty"` // 截断后的响应体
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}
