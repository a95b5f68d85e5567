package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	mu     sync.Mutex
	inputs [][]*schema.Message
	reply  string
	err    error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func newTestService(t *testing.T, fake *fakeChatModel) *Service {
	t.Helper()
	svc, err := NewServiceWithModel(context.Background(), fake, DefaultPromptTemplate("You are a test bot."), zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestReplySendsSystemPromptAndMessage(t *testing.T) {
	fake := &fakeChatModel{reply: "  Hi there!  "}
	svc := newTestService(t, fake)

	reply, err := svc.Reply(context.Background(), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)

	require.Len(t, fake.inputs, 1)
	input := fake.inputs[0]
	require.Len(t, input, 2)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Contains(t, input[0].Content, "You are a test bot.")
	assert.Contains(t, input[0].Content, "Rules:")
	assert.Equal(t, schema.User, input[1].Role)
	assert.Equal(t, "hello", input[1].Content)
}

func TestReplyKeepsBracesInUserText(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	svc := newTestService(t, fake)

	_, err := svc.Reply(context.Background(), "what does {x} mean?")
	require.NoError(t, err)
	assert.Equal(t, "what does {x} mean?", fake.inputs[0][1].Content)
}

func TestReplyRejectsEmptyMessage(t *testing.T) {
	fake := &fakeChatModel{reply: "unused"}
	svc := newTestService(t, fake)

	_, err := svc.Reply(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, fake.inputs)
}

func TestReplyWrapsModelError(t *testing.T) {
	modelErr := errors.New("quota exceeded")
	svc := newTestService(t, &fakeChatModel{err: modelErr})

	_, err := svc.Reply(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), modelErr.Error())
}

func TestNewServiceWithModelRequiresModel(t *testing.T) {
	_, err := NewServiceWithModel(context.Background(), nil, DefaultPromptTemplate(""), zerolog.Nop())
	assert.Error(t, err)
}

func TestPromptTemplateBuild(t *testing.T) {
	tmpl := DefaultPromptTemplate("")
	built := tmpl.Build()
	assert.Contains(t, built, "Anything Boes")
	for _, rule := range tmpl.ContextRules {
		assert.Contains(t, built, rule)
	}

	bare := PromptTemplate{SystemPrompt: "just this"}
	assert.Equal(t, "just this", bare.Build())
}
