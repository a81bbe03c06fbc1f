// Package pdfqa 实现 PDF 问答的两个用户操作：上传文档获取会话，以及针对会话提问。
// 两者都通过 orchestrator 发送，后端的字段命名和编码格式不稳定，因此提问会依次尝试多种格式。
package pdfqa

import (
	"MultiAI_Assistant/backend/go/internal/archive"
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"errors"
	"strings"
)

var (
	ErrEmptyDocument    = errors.New("document is empty")
	ErrNotPDF           = errors.New("document is not a PDF")
	ErrInvalidPDF       = errors.New("document is not a readable PDF")
	ErrQuestionRequired = errors.New("question is required")
	ErrSessionRequired  = errors.New("session ID is required")
)

// Client 发送上传和提问请求。
type Client struct {
	orch       *orchestrator.Orchestrator
	baseURL    string
	compat     bool
	askPlan    orchestrator.RetryPlan
	uploadPlan orchestrator.RetryPlan
	sessions   *SessionStore
	archive    archive.Archive
	log        *logger.Logger
}

// Option 配置 Client。
type Option func(*Client)

// WithSessionStore 在上传成功后记录会话信息。
func WithSessionStore(s *SessionStore) Option {
	return func(c *Client) {
		c.sessions = s
	}
}

// WithArchive 在上传成功后归档原始文档。
func WithArchive(a archive.Archive) Option {
	return func(c *Client) {
		c.archive = a
	}
}

// WithLogger 设置日志记录器。
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New 根据后端配置创建 Client。
func New(orch *orchestrator.Orchestrator, cfg config.BackendConfig, opts ...Option) *Client {
	c := &Client{
		orch:       orch,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		compat:     cfg.CompatibilityMode,
		askPlan:    orchestrator.PlanFromConfig(cfg.Retry),
		uploadPlan: orchestrator.PlanFromConfig(cfg.UploadRetry),
		archive:    archive.Nop{},
		log:        logger.New("pdfqa", "", ""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sessions 返回会话存储，未配置时为 nil。
func (c *Client) Sessions() *SessionStore {
	return c.sessions
}
