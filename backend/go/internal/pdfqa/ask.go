package pdfqa

import (
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// 各编码下会话 ID 的发送字段名。后端接受哪一个并不确定，所以全部带上。
var (
	formSessionNames = []string{"session_id", "sessionId", "session_token"}
	jsonSessionNames = []string{"session_id", "sessionId", "session_token", "sessionToken", "token"}
)

// AskStrategies 返回提问的策略列表。兼容模式下依次为 form、JSON、multipart，
// 否则只使用 JSON。
func AskStrategies(compat bool) []orchestrator.Strategy {
	jsonStrategy := orchestrator.Strategy{
		Name:     "json",
		Encoding: orchestrator.JSON,
		Aliases:  map[string][]string{"session_id": jsonSessionNames},
	}
	if !compat {
		return []orchestrator.Strategy{jsonStrategy}
	}
	return []orchestrator.Strategy{
		{
			Name:     "form",
			Encoding: orchestrator.FormURLEncoded,
			Aliases:  map[string][]string{"session_id": formSessionNames},
		},
		jsonStrategy,
		{
			Name:     "multipart",
			Encoding: orchestrator.Multipart,
			Aliases:  map[string][]string{"session_id": formSessionNames},
		},
	}
}

// AskIntent 构造 ask-qa 的意图。
func (c *Client) AskIntent(question, sessionID string) orchestrator.Intent {
	return orchestrator.Intent{
		Name:   "ask-qa",
		Method: http.MethodPost,
		URL:    c.baseURL + "/ask-qa",
		Fields: []orchestrator.Field{
			{Name: "question", Value: question},
			{Name: "session_id", Value: sessionID},
		},
	}
}

// AskQuestion 针对已上传文档提问。全部格式都失败时 Result.Fields 为
// {"has_documents": false}，调用方据此提示用户重新上传。
func (c *Client) AskQuestion(ctx context.Context, question, sessionID string) (orchestrator.Result, error) {
	question = strings.TrimSpace(question)
	sessionID = strings.TrimSpace(sessionID)
	if question == "" {
		return orchestrator.Result{}, ErrQuestionRequired
	}
	if sessionID == "" {
		return orchestrator.Result{}, ErrSessionRequired
	}

	log := c.log
	if c.sessions != nil {
		sess, ok, err := c.sessions.Lookup(ctx, sessionID)
		switch {
		case err != nil:
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "SessionLookup"}).Warn("session lookup failed")
		case !ok:
			log.Debug(fmt.Sprintf("session %s is not known locally, asking anyway", sessionID))
		default:
			log = log.WithFields(map[string]interface{}{
				"session_id":        sess.ID,
				"session_generated": sess.Generated,
				"document":          sess.DocumentName,
			})
			if sess.Generated {
				// 上传时后端没有返回会话 ID，本地生成的 ID 后端多半不认识。
				log.Warn("asking with a locally generated session id")
			}
		}
	}

	res := c.orch.Execute(ctx, c.AskIntent(question, sessionID), AskStrategies(c.compat), &c.askPlan)
	if !res.Success {
		res.Fields = map[string]any{"has_documents": false}
		log.WithError(errorInfo(res)).Warn("ask-qa failed")
		return res, nil
	}
	res.Fields = CompatFields(res.Fields)
	return res, nil
}

// CompatFields 在响应的 session_id 缺失、为 null 或为空串，而 session_info.session_token
// 有值时补上顶层的 session_id，老的调用方只认这个字段。fields 不会被修改。
func CompatFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	if id := fields["session_id"]; id != nil && id != "" {
		return fields
	}
	info, ok := fields["session_info"].(map[string]any)
	if !ok {
		return fields
	}
	token, ok := info["session_token"]
	if !ok || token == nil || token == "" {
		return fields
	}
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["session_id"] = token
	return out
}

func errorInfo(res orchestrator.Result) models.ErrorInfo {
	info := models.ErrorInfo{StatusCode: res.StatusCode}
	if res.Err != nil {
		info.Message = res.Err.Error()
		info.Type = res.Err.Kind.String()
	}
	return info
}
