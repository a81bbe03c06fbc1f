package models

// LogEntry 定义了网关结构化日志的统一数据格式。
type LogEntry struct {
	// ServiceName 是产生这条日志的组件名称，例如 "assistant-gateway"、"assistant-cli"。
	ServiceName string `json:"service_name"`

	// TraceID 用于把同一个用户操作触发的多次后端请求串联起来。
	TraceID string `json:"trace_id,omitempty"`

	// UserID 标识了与此日志事件相关的用户（如果适用）。
	UserID string `json:"user_id,omitempty"`

	RequestInfo *RequestInfo           `json:"request_info,omitempty"`
	Error       *ErrorInfo             `json:"error,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储了关于入站 HTTP 请求的上下文信息。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // 错误类型，例如 "NetworkError", "ClientError"
	StatusCode int    `json:"status_code,omitempty"` // 相关的HTTP状态码
}
