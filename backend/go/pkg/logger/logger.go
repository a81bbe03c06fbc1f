package logger

import (
	"MultiAI_Assistant/backend/go/internal/models"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger 是对 logrus 的封装，以提供更方便的结构化日志记录功能。
// With* 方法返回新的 Logger，原实例不受影响，因此可以在多个 goroutine 之间共享。
type Logger struct {
	entry *logrus.Entry
}

// Init 初始化全局的 logrus 配置。
func Init(level logrus.Level) {
	logrus.SetFormatter(newFormatter())
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// ParseLevel 把配置中的级别字符串转换为 logrus.Level，无法识别时回退到 Info。
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func newFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// New 创建一个新的 Logger 实例，并可以预设一些初始字段。
func New(serviceName, traceID, userID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
			"user_id":      userID,
		}),
	}
}

// NewWithWriter 创建一个独立于全局配置的 Logger，主要用于测试中捕获输出。
func NewWithWriter(serviceName string, w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetFormatter(newFormatter())
	l.SetOutput(w)
	l.SetLevel(level)
	return &Logger{entry: l.WithField("service_name", serviceName)}
}

// Discard 返回一个丢弃所有输出的 Logger。
func Discard() *Logger {
	return NewWithWriter("discard", io.Discard, logrus.PanicLevel)
}

func (l *Logger) with(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithTrace 替换 trace_id 字段。
func (l *Logger) WithTrace(traceID string) *Logger {
	return l.with(logrus.Fields{"trace_id": traceID})
}

// WithFields 添加任意结构化字段。
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(fields)
}

// WithRequest 将请求信息添加到日志条目中。
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return l.with(logrus.Fields{"request_info": req})
}

// WithAttempt 将一次后端请求尝试的信息添加到日志条目中。
func (l *Logger) WithAttempt(a models.AttemptLog) *Logger {
	fields := logrus.Fields{
		"intent":      a.Intent,
		"strategy":    a.Strategy,
		"attempt":     a.Attempt,
		"status_code": a.StatusCode,
		"outcome":     a.Outcome,
		"duration_ms": a.DurationMs,
		"body":        a.Body,
	}
	if a.TraceID != "" {
		fields["trace_id"] = a.TraceID
	}
	if a.Error != "" {
		fields["attempt_error"] = a.Error
	}
	return l.with(fields)
}

// WithError 将错误信息添加到日志条目中。
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return l.with(logrus.Fields{"error": err})
}

// WithPayload 将自定义的业务数据添加到日志条目中。
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return l.with(logrus.Fields{"payload": payload})
}

// Info 记录一条信息级别的日志。
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn 记录一条警告级别的日志。
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error 记录一条错误级别的日志。
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug 记录一条调试级别的日志。
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal 记录一条致命错误级别的日志，并终止程序。
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
