// Package chat 实现 Ghana 聊天：把用户消息发给后端的 /ghana/query，
// 后端不可用时可以退回到本地的模拟回复。
package chat

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMessageRequired 在消息为空时返回。
var ErrMessageRequired = errors.New("message is required")

// Reply 是返回给调用方的聊天回复。
type Reply struct {
	Response      string `json:"response"`
	Source        string `json:"source"`
	IsFactChecked bool   `json:"isFactChecked"`
	Simulated     bool   `json:"simulated,omitempty"`
}

// backendReply 是 /ghana/query 的响应格式。
type backendReply struct {
	Message       string `json:"message"`
	Source        string `json:"source"`
	IsFactChecked bool   `json:"isFactChecked"`
}

// Simulator 在后端失败时生成替代回复。
type Simulator interface {
	ChatReply(message string) Reply
}

// Client 发送聊天消息。
type Client struct {
	orch      *orchestrator.Orchestrator
	url       string
	plan      orchestrator.RetryPlan
	simulator Simulator
	log       *logger.Logger
}

// New 创建 Client。sim 为 nil 时后端失败会直接返回错误。
func New(orch *orchestrator.Orchestrator, cfg config.BackendConfig, sim Simulator, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New("chat", "", "")
	}
	return &Client{
		orch:      orch,
		url:       strings.TrimRight(cfg.BaseURL, "/") + "/ghana/query",
		plan:      orchestrator.PlanFromConfig(cfg.Retry),
		simulator: sim,
		log:       log,
	}
}

// Strategies 返回聊天请求的策略：只有 JSON。
func Strategies() []orchestrator.Strategy {
	return []orchestrator.Strategy{{Name: "json", Encoding: orchestrator.JSON}}
}

// SendMessage 发送一条消息。
func (c *Client) SendMessage(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrMessageRequired
	}

	intent := orchestrator.Intent{
		Name:   "ghana-query",
		URL:    c.url,
		Fields: []orchestrator.Field{{Name: "message", Value: message}},
	}
	res := c.orch.Execute(ctx, intent, Strategies(), &c.plan)

	var err error
	if res.Success {
		var br backendReply
		if derr := res.Decode(&br); derr == nil && res.Fields != nil {
			return Reply{Response: br.Message, Source: br.Source, IsFactChecked: br.IsFactChecked}, nil
		}
		err = fmt.Errorf("%s: backend reply is not a JSON object", orchestrator.ParseError)
	} else {
		err = res.Err
	}

	c.log.WithError(models.ErrorInfo{Message: err.Error(), StatusCode: res.StatusCode}).Warn("ghana chat request failed")
	if c.simulator == nil || errors.Is(err, orchestrator.ErrCancelled) {
		return Reply{}, err
	}
	reply := c.simulator.ChatReply(message)
	reply.Simulated = true
	return reply, nil
}
