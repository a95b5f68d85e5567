// Package tui renders a chat session in the terminal with bubbletea.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/internal/model/chat"
)

const (
	headerText  = "Welcome to Anything Boes Studio"
	placeholder = "Type your message..."
	emptyText   = "No messages yet. Say hello!"
	waitingText = "Waiting for reply..."
	helpText    = "enter send • pgup/pgdn scroll • esc quit"

	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 4 // header, input, help and a spacer line
	glamourGutter = 2
)

// Session is the part of the chat controller the TUI drives.
type Session interface {
	Snapshot() chat.Snapshot
	Subscribe() (<-chan struct{}, func())
	OnDraftChange(text string)
	Submit(ctx context.Context, text string) bool
}

// sessionChangedMsg is sent whenever the controller reports a change.
type sessionChangedMsg struct{}

// submittedMsg is sent once a submission settles.
type submittedMsg struct {
	accepted bool
}

// Option customizes a Model.
type Option func(*Model)

// WithMarkdown toggles glamour rendering for bot replies.
func WithMarkdown(enabled bool) Option {
	return func(m *Model) {
		m.markdown = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) {
		m.log = log
	}
}

// Model is the bubbletea model for one chat session.
type Model struct {
	ctx         context.Context
	session     Session
	changes     <-chan struct{}
	unsubscribe func()
	log         zerolog.Logger

	snapshot chat.Snapshot
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	markdown bool

	width  int
	height int
}

// New subscribes to session and builds the model. Call Close after the
// program exits.
func New(ctx context.Context, session Session, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	changes, unsubscribe := session.Subscribe()

	m := Model{
		ctx:         ctx,
		session:     session,
		changes:     changes,
		unsubscribe: unsubscribe,
		log:         zerolog.Nop(),
		input:       ti,
		spinner:     sp,
		markdown:    true,
		snapshot:    session.Snapshot(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.input.SetValue(m.snapshot.Draft)
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Close stops listening for session changes.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, listen(m.changes)}
	if m.snapshot.Busy {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// listen waits for the next change notification.
func listen(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

func (m Model) submit(text string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return submittedMsg{accepted: session.Submit(ctx, text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case sessionChangedMsg:
		wasBusy := m.snapshot.Busy
		m.snapshot = m.session.Snapshot()
		if m.input.Value() != m.snapshot.Draft {
			m.input.SetValue(m.snapshot.Draft)
			m.input.CursorEnd()
		}

		cmds := []tea.Cmd{listen(m.changes)}
		if m.snapshot.Busy {
			m.input.Blur()
			if !wasBusy {
				cmds = append(cmds, m.spinner.Tick)
			}
		} else {
			cmds = append(cmds, m.input.Focus())
		}
		m.refresh()
		return m, tea.Batch(cmds...)

	case submittedMsg:
		if !msg.accepted {
			m.log.Debug().Msg("submission not accepted")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snapshot.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyEnter:
		if m.snapshot.Busy {
			return m, nil
		}
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.session.OnDraftChange("")
		return m, m.submit(text)
	}

	// 请求进行中时输入框禁用
	if m.snapshot.Busy {
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.session.OnDraftChange(after)
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := max(height-chromeHeight, 1)
	if m.viewport.Width == 0 && m.viewport.Height == 0 {
		m.viewport = viewport.New(width, vpHeight)
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = max(width-len(m.input.Prompt)-1, 1)

	m.renderer = nil
	if m.markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("tokyo-night"),
			glamour.WithWordWrap(max(width-glamourGutter, 20)),
		)
		if err != nil {
			m.log.Warn().Err(err).Msg("markdown renderer unavailable, falling back to plain text")
		} else {
			m.renderer = renderer
		}
	}

	m.refresh()
}

// refresh re-renders the log into the viewport and scrolls to the newest entry.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	if len(m.snapshot.Messages) == 0 {
		return emptyStyle.Render(emptyText)
	}

	body := lipgloss.NewStyle().Width(max(m.width-2, 10))
	blocks := make([]string, 0, len(m.snapshot.Messages))
	for _, msg := range m.snapshot.Messages {
		label := userLabelStyle.Render(msg.Sender.Label())
		if msg.Sender == chat.SenderBot {
			label = botLabelStyle.Render(msg.Sender.Label())
		}
		header := label + " " + timeStyle.Render(msg.CreatedAt.Local().Format("15:04"))

		text := body.Render(msg.Text)
		if msg.Sender == chat.SenderBot {
			text = m.renderMarkdown(msg.Text, text)
		}
		blocks = append(blocks, header+"\n"+text)
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMarkdown(source, fallback string) string {
	if m.renderer == nil {
		return fallback
	}
	rendered, err := m.renderer.Render(source)
	if err != nil {
		return fallback
	}
	return strings.Trim(rendered, "\n")
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(headerText))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.snapshot.Busy {
		b.WriteString(m.spinner.View() + " " + waitingText)
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))

	return b.String()
}
