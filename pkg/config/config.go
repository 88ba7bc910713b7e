// Package config loads engine settings from file, environment and
// defaults, in that order of increasing precedence for the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds all configuration values.
type Settings struct {
	// Backend is the assistant service producing the event stream.
	Backend struct {
		URL string `mapstructure:"url"`
		// Timeout bounds a whole streamed turn; zero disables it.
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`

	// Store is the persistence service holding threads and messages.
	Store struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"store"`

	Logging struct {
		LogFile string `mapstructure:"log_file"`
		Persist bool   `mapstructure:"persist"`
		Level   string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Tools struct {
		// Visible lists the tool names whose invocations render UI.
		Visible []string `mapstructure:"visible"`
	} `mapstructure:"tools"`

	// ConfigFile stores the path of the config file actually used.
	ConfigFile string `mapstructure:"-"`
}

var global *Settings

// Get returns the global settings instance.
func Get() *Settings {
	if global == nil {
		panic("config not initialized")
	}
	return global
}

// Load reads settings from the given file (or the default search paths
// when empty), applies defaults and ONESEEK_* environment overrides, and
// installs the result as the global instance.
func Load(cfgFile string) (*Settings, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath("./.oneseek")
		viper.AddConfigPath(filepath.Join(home, ".config", "oneseek"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("ONESEEK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and environment carry it.
	if err := viper.ReadInConfig(); err == nil {
		cfgFile = viper.ConfigFileUsed()
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	settings.ConfigFile = cfgFile

	global = settings
	return settings, nil
}

// SettingsDir returns the directory holding engine state such as log
// files, creating it if needed.
func SettingsDir() string {
	dir := "./.oneseek"
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// BuildSettingsPath resolves a filename relative to the settings directory.
func BuildSettingsPath(filename string) string {
	return filepath.Join(SettingsDir(), filename)
}

func setDefaults() {
	viper.SetDefault("backend.url", "http://localhost:8080")
	viper.SetDefault("backend.timeout", 0)

	viper.SetDefault("store.url", "http://localhost:8081")
	viper.SetDefault("store.timeout", "30s")

	viper.SetDefault("logging.log_file", "engine.log")
	viper.SetDefault("logging.persist", false)
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("tools.visible", []string{
		"generate_podcast",
		"generate_image",
		"compare_documents",
	})
}
