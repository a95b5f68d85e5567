// Package logging configures the global zerolog logger for the binaries.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 当前日志文件，重新 Setup 或 Close 时关闭
var (
	fileMu  sync.Mutex
	logFile *os.File
	console io.Writer
)

// Setup points the global logger at stderr, optionally teeing to logFile.
// When deferred is non-nil the console output is replaced by it, which keeps
// log lines from tearing a full-screen TUI. A file opened by an earlier Setup
// is closed once the new logger is installed.
func Setup(level string, path string, deferred io.Writer) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	consoleOut := io.Writer(os.Stderr)
	if deferred != nil {
		consoleOut = deferred
	}
	consoleWriter := zerolog.ConsoleWriter{Out: consoleOut}
	var output io.Writer = consoleWriter

	var file *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		output = io.MultiWriter(output, file)
	}

	fileMu.Lock()
	defer fileMu.Unlock()

	log.Logger = log.Output(output).Level(parsedLevel)
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	console = consoleWriter
	return nil
}

// Close releases the log file opened by Setup, if any. Later log lines only
// reach the console writer.
func Close() error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if logFile == nil {
		return nil
	}
	log.Logger = log.Output(console)
	err := logFile.Close()
	logFile = nil
	return err
}

// Component returns a child of the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// DeferredWriter buffers log lines until Flush is called.
type DeferredWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Flush copies the buffered lines to w and resets the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() == 0 {
		return nil
	}
	_, err := d.buf.WriteTo(w)
	return err
}
