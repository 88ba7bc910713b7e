package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("should map known names case-insensitively", func(t *testing.T) {
		assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
		assert.Equal(t, LevelWarn, ParseLevel("warning"))
		assert.Equal(t, LevelError, ParseLevel("error"))
	})

	t.Run("should default to info", func(t *testing.T) {
		assert.Equal(t, LevelInfo, ParseLevel(""))
		assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	})
}

func TestLogger(t *testing.T) {
	t.Run("should filter below the configured level", func(t *testing.T) {
		l, err := New(LevelWarn, "", false)
		require.NoError(t, err)

		var buf bytes.Buffer
		l.SetOutput(&buf)

		l.Debug("dropped %d", 1)
		l.Info("dropped too")
		l.Warn("kept %s", "warning")
		l.Error("kept error")

		out := buf.String()
		assert.NotContains(t, out, "dropped")
		assert.Contains(t, out, "[WARN] kept warning")
		assert.Contains(t, out, "[ERROR] kept error")
	})

	t.Run("should append to the log file when persisting", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.log")

		l, err := New(LevelInfo, path, true)
		require.NoError(t, err)
		l.Info("written to disk")
		require.NoError(t, l.Close())

		second, err := New(LevelInfo, path, true)
		require.NoError(t, err)
		second.Info("second run")
		require.NoError(t, second.Close())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "written to disk")
		assert.Contains(t, string(raw), "second run")
	})

	t.Run("should drop package-level calls before Init", func(t *testing.T) {
		prev := defaultLogger
		defaultLogger = nil
		defer func() { defaultLogger = prev }()

		// Must not panic.
		Debug("no logger yet")
		Error("still no logger")
	})
}
