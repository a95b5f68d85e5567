package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/internal/model/chat"
)

// ErrTransportPanic wraps a panic recovered while sending a message.
var ErrTransportPanic = errors.New("reply transport panicked")

// Transport performs one reply round trip. Implementations fold every failure
// into the returned outcome.
type Transport interface {
	Send(ctx context.Context, text string) chat.Outcome
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, text string) chat.Outcome

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, text string) chat.Outcome {
	return f(ctx, text)
}

// Service owns a single chat session: the append-only message log, the draft
// and the busy flag. It is the only writer of that state.
type Service struct {
	transport Transport
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	messages []chat.Message
	draft    string
	busy     bool

	subMu       sync.Mutex
	subscribers map[int]chan struct{}
	nextSubID   int
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService starts an empty session that sends through transport.
func NewService(transport Transport, opts ...Option) *Service {
	s := &Service{
		transport:   transport,
		log:         zerolog.Nop(),
		now:         time.Now,
		messages:    make([]chat.Message, 0, 16),
		subscribers: make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit sends text and blocks until the request settles. It returns false
// without touching the session when text is blank or another request is
// outstanding. Accepted submissions always append one user and one bot message.
func (s *Service) Submit(ctx context.Context, text string) (accepted bool) {
	if !s.begin(text) {
		return false
	}
	accepted = true

	outcome := chat.LocalError(nil)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrTransportPanic, r)
			s.log.Error().Err(err).Msg("recovered from transport panic")
			outcome = chat.LocalError(err)
		}
		s.settle(outcome)
	}()

	outcome = s.transport.Send(ctx, text)
	return accepted
}

// SubmitDraft submits the current draft.
func (s *Service) SubmitDraft(ctx context.Context) bool {
	return s.Submit(ctx, s.Draft())
}

// OnDraftChange records the text currently being typed.
func (s *Service) OnDraftChange(text string) {
	s.mu.Lock()
	changed := s.draft != text
	s.draft = text
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Service) begin(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.log.Debug().Msg("submission dropped while request in flight")
		return false
	}
	s.busy = true
	s.messages = append(s.messages, chat.NewMessage(chat.SenderUser, text, s.now()))
	s.draft = ""
	s.mu.Unlock()

	s.log.Debug().Int("length", len(text)).Msg("message submitted")
	s.notify()
	return true
}

func (s *Service) settle(outcome chat.Outcome) {
	s.mu.Lock()
	s.messages = append(s.messages, chat.NewMessage(chat.SenderBot, outcome.BotText(), s.now()))
	s.busy = false
	s.mu.Unlock()

	event := s.log.Debug()
	if outcome.Kind != chat.OutcomeSuccess {
		event = s.log.Warn().Err(outcome.Err)
	}
	event.Str("outcome", outcome.Kind.String()).Msg("request settled")
	s.notify()
}

// Messages returns a copy of the log in insertion order.
func (s *Service) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Draft returns the unsent input.
func (s *Service) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Busy reports whether a request is outstanding.
func (s *Service) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Snapshot returns a consistent copy of the whole session state.
func (s *Service) Snapshot() chat.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return chat.Snapshot{
		Messages: copied,
		Draft:    s.draft,
		Busy:     s.busy,
	}
}

// Subscribe returns a channel that receives a value whenever the session
// changes. Notifications coalesce; readers should re-read the state on each
// receive. The returned func unsubscribes and closes the channel.
func (s *Service) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Service) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
