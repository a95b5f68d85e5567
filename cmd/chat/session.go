package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/anythingboes/boes-chat/internal/logging"
	"github.com/anythingboes/boes-chat/internal/model/chat"
	chatservice "github.com/anythingboes/boes-chat/internal/service/chat"
	"github.com/anythingboes/boes-chat/internal/tui"
)

func parseTimeout(raw string) (time.Duration, error) {
	timeout, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout value %q: %w", raw, err)
	}
	return timeout, nil
}

// runTUI owns the terminal until the user quits. Logs written meanwhile sit in
// deferred and are printed once the alt screen is gone.
func runTUI(ctx context.Context, svc *chatservice.Service, deferred *logging.DeferredWriter) error {
	defer func() {
		_ = deferred.Flush(os.Stderr)
	}()

	m := tui.New(ctx, svc, tui.WithLogger(logging.Component("tui")))
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// runLines submits every non-blank input line and prints the bot reply.
func runLines(ctx context.Context, svc *chatservice.Service, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !svc.Submit(ctx, line) {
			continue
		}
		printReply(out, svc)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// printReply writes the newest bot message.
func printReply(out io.Writer, svc *chatservice.Service) {
	msgs := svc.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == chat.SenderBot {
			fmt.Fprintf(out, "%s: %s\n", msgs[i].Sender.Label(), msgs[i].Text)
			return
		}
	}
}
