package ai

import (
	"fmt"
	"strings"

	"github.com/anythingboes/boes-chat/internal/config"
)

// PromptTemplate describes how the assistant should behave.
type PromptTemplate struct {
	SystemPrompt string
	ContextRules []string
}

// DefaultPromptTemplate wraps systemPrompt with the studio's reply rules.
func DefaultPromptTemplate(systemPrompt string) PromptTemplate {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = config.DefaultSystemPrompt
	}

	return PromptTemplate{
		SystemPrompt: systemPrompt,
		ContextRules: []string{
			"Reply in plain text without markdown headings",
			"Keep the reply to a few sentences",
			"If you do not know the answer, say so instead of guessing",
		},
	}
}

// Build renders the system prompt sent with every request.
func (t PromptTemplate) Build() string {
	if len(t.ContextRules) == 0 {
		return t.SystemPrompt
	}

	return fmt.Sprintf("%s\n\nRules:\n- %s", t.SystemPrompt, strings.Join(t.ContextRules, "\n- "))
}
