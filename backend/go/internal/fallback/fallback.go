// Package fallback 提供后端不可用时使用的默认数据。
package fallback

import (
	"MultiAI_Assistant/backend/go/internal/chat"
	"strings"
)

// Rule 在消息包含任一关键词时给出固定回复。
type Rule struct {
	Keywords []string
	Reply    chat.Reply
}

// Provider 按顺序匹配规则，第一条命中的规则生效。
type Provider struct {
	rules        []Rule
	defaultReply chat.Reply
}

// New 使用自定义规则创建 Provider。
func New(rules []Rule, defaultReply chat.Reply) *Provider {
	return &Provider{rules: rules, defaultReply: defaultReply}
}

// Default 返回内置的 Ghana 聊天规则。
func Default() *Provider {
	return New(defaultRules, chat.Reply{
		Response: "Thank you for your question about Ghana. The assistant is running in simulation mode right now, " +
			"so this answer may be out of date. Please try again once the connection is restored.",
		Source:        "Simulation",
		IsFactChecked: false,
	})
}

// ChatReply 实现 chat.Simulator。
func (p *Provider) ChatReply(message string) chat.Reply {
	lower := strings.ToLower(message)
	for _, r := range p.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Reply
			}
		}
	}
	return p.defaultReply
}

var defaultRules = []Rule{
	{
		Keywords: []string{"proverb"},
		Reply: chat.Reply{
			Response: "Some Ghanaian proverbs:\n\n" +
				"1. \"Knowledge is like a garden; if it is not cultivated, it cannot be harvested.\"\n" +
				"2. \"The ruin of a nation begins in the homes of its people.\"\n" +
				"3. \"It is the calm and silent water that drowns a man.\"",
			Source:        "Ghanaian Cultural Heritage",
			IsFactChecked: true,
		},
	},
	{
		Keywords: []string{"dey go on", "what's up"},
		Reply: chat.Reply{
			Response: "Things dey happen o! The Black Stars are training for their next match and everybody " +
				"dey watch the cedi. How you dey?",
			Source:        "Current Events in Ghana",
			IsFactChecked: true,
		},
	},
	{
		Keywords: []string{"place", "visit", "explore"},
		Reply: chat.Reply{
			Response: "Places worth exploring in Ghana:\n\n" +
				"1. Cape Coast Castle\n2. Kakum National Park\n3. Mole National Park\n" +
				"4. Wli Waterfalls\n5. Labadi Beach\n6. Lake Volta",
			Source:        "Ghana Tourism Authority",
			IsFactChecked: true,
		},
	},
	{
		Keywords: []string{"food", "dish", "eat"},
		Reply: chat.Reply{
			Response: "Popular Ghanaian dishes:\n\n" +
				"1. Jollof Rice\n2. Waakye\n3. Banku and Tilapia\n4. Fufu and Light Soup\n5. Kelewele",
			Source:        "Ghanaian Cuisine",
			IsFactChecked: true,
		},
	},
}

var _ chat.Simulator = (*Provider)(nil)
