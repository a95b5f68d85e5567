package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := Setup("chatty", "", nil)
	assert.Error(t, err)
}

func TestSetupDeferredBuffersUntilFlush(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	deferred := &DeferredWriter{}
	require.NoError(t, Setup("info", "", deferred))

	log.Info().Str("component", "test").Msg("held back")
	log.Debug().Msg("filtered out")

	var out bytes.Buffer
	require.NoError(t, deferred.Flush(&out))
	assert.Contains(t, out.String(), "held back")
	assert.NotContains(t, out.String(), "filtered out")

	out.Reset()
	require.NoError(t, deferred.Flush(&out))
	assert.Empty(t, out.String(), "flush drains the buffer")
}

func TestSetupWritesLogFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		_ = Close()
		log.Logger = prev
	})

	path := filepath.Join(t.TempDir(), "nested", "chat.log")
	require.NoError(t, Setup("debug", path, &DeferredWriter{}))

	logger := Component("reply")
	logger.Debug().Msg("to the file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to the file")
	assert.Contains(t, string(data), `"component":"reply"`)
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())
}

func TestSetupClosesPreviousLogFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		_ = Close()
		log.Logger = prev
	})

	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	require.NoError(t, Setup("info", first, &DeferredWriter{}))
	firstFile := logFile
	require.NotNil(t, firstFile)

	require.NoError(t, Setup("info", second, &DeferredWriter{}))
	_, err := firstFile.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)

	log.Info().Msg("only in second")

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "only in second")

	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in second")
}

func TestCloseReleasesLogFileAndKeepsConsole(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	deferred := &DeferredWriter{}
	path := filepath.Join(t.TempDir(), "chat.log")
	require.NoError(t, Setup("info", path, deferred))
	opened := logFile

	require.NoError(t, Close())
	require.NoError(t, Close(), "closing twice is a no-op")
	assert.Nil(t, logFile)

	_, err := opened.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	log.Info().Msg("after close")

	var out bytes.Buffer
	require.NoError(t, deferred.Flush(&out))
	assert.Contains(t, out.String(), "after close")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "after close")
}

func TestComponentLoggerFollowsSetupOrder(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	deferred := &DeferredWriter{}
	require.NoError(t, Setup("warn", "", deferred))
	logger := Component("reply")
	logger.Warn().Msg("held for the tui")

	var out bytes.Buffer
	require.NoError(t, deferred.Flush(&out))
	assert.Contains(t, out.String(), "held for the tui")
	assert.Contains(t, out.String(), "reply")
}
