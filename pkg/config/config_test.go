package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromYAML(t *testing.T, content string) *Settings {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)
	return settings
}

func TestLoad(t *testing.T) {
	t.Run("should apply defaults with an empty file", func(t *testing.T) {
		settings := loadFromYAML(t, "")

		assert.Equal(t, "http://localhost:8080", settings.Backend.URL)
		assert.Equal(t, time.Duration(0), settings.Backend.Timeout)
		assert.Equal(t, "http://localhost:8081", settings.Store.URL)
		assert.Equal(t, 30*time.Second, settings.Store.Timeout)
		assert.Equal(t, "info", settings.Logging.Level)
		assert.Contains(t, settings.Tools.Visible, "generate_podcast")
	})

	t.Run("should let the file override defaults", func(t *testing.T) {
		settings := loadFromYAML(t, `
backend:
  url: http://backend.internal:9000
  timeout: 2m
store:
  timeout: 5s
logging:
  level: debug
  persist: true
tools:
  visible:
    - generate_image
`)

		assert.Equal(t, "http://backend.internal:9000", settings.Backend.URL)
		assert.Equal(t, 2*time.Minute, settings.Backend.Timeout)
		assert.Equal(t, 5*time.Second, settings.Store.Timeout)
		assert.Equal(t, "debug", settings.Logging.Level)
		assert.True(t, settings.Logging.Persist)
		assert.Equal(t, []string{"generate_image"}, settings.Tools.Visible)
	})

	t.Run("should record the config file used", func(t *testing.T) {
		settings := loadFromYAML(t, "logging:\n  level: warn\n")
		assert.NotEmpty(t, settings.ConfigFile)
	})

	t.Run("should respect environment overrides", func(t *testing.T) {
		t.Setenv("ONESEEK_BACKEND_URL", "http://from-env:7000")

		settings := loadFromYAML(t, "backend:\n  url: http://from-file:9000\n")
		assert.Equal(t, "http://from-env:7000", settings.Backend.URL)
	})

	t.Run("should install the global instance", func(t *testing.T) {
		settings := loadFromYAML(t, "")
		assert.Same(t, settings, Get())
	})
}
