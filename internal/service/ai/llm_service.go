package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/internal/config"
)

// ErrEmptyMessage is returned when Reply is called without any text.
var ErrEmptyMessage = errors.New("message is empty")

// Service generates a single reply per message through an eino chain.
type Service struct {
	template PromptTemplate
	chain    compose.Runnable[map[string]any, *schema.Message]
	log      zerolog.Logger
}

// NewService creates the chat model described by cfg and wraps it in a Service.
func NewService(ctx context.Context, cfg config.AIConfig, log zerolog.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewServiceWithModel(ctx, chatModel, DefaultPromptTemplate(cfg.SystemPrompt), log)
}

// NewServiceWithModel compiles the reply chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, template PromptTemplate, log zerolog.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		template: template,
		chain:    runnable,
		log:      log,
	}, nil
}

// Reply returns the model's answer to message. Every call is independent; no
// conversation history is kept on the server.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": s.template.Build(),
		"query":  message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	s.log.Debug().Int("input_length", len(message)).Int("reply_length", len(reply)).Msg("generated reply")
	return reply, nil
}
