// Package logger provides the engine's leveled logging. It writes to a
// file under the settings directory when persistence is enabled and
// mirrors errors to stderr.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/config"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a leveled printf-style logger.
type Logger struct {
	level  LogLevel
	logger *log.Logger
	file   *os.File
}

var defaultLogger *Logger

// Init initializes the default logger from the global config. Calling it
// twice is a no-op.
func Init() error {
	if defaultLogger != nil {
		return nil
	}

	settings := config.Get()
	level := ParseLevel(settings.Logging.Level)

	logPath := settings.Logging.LogFile
	if !filepath.IsAbs(logPath) {
		logPath = config.BuildSettingsPath(filepath.Base(logPath))
	}

	l, err := New(level, logPath, settings.Logging.Persist)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defaultLogger = l
	return nil
}

// New creates a Logger. With persist false the logger writes to stderr
// only; otherwise it appends to the given file.
func New(level LogLevel, logPath string, persist bool) (*Logger, error) {
	if !persist {
		return &Logger{
			level:  level,
			logger: log.New(os.Stderr, "", log.LstdFlags),
		}, nil
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	return &Logger{
		level:  level,
		logger: log.New(file, "", log.LstdFlags),
		file:   file,
	}, nil
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s", level.String(), message)

	if level >= LevelError && l.file != nil {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", level.String(), message)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// SetOutput redirects the logger's output, useful for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions using the default logger. They are
// safe to call before Init; messages are then dropped.

func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debug(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Info(format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warn(format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Error(format, args...)
	}
}

// SetOutput redirects the default logger's output.
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.SetOutput(w)
	}
}

// Close closes the default logger.
func Close() error {
	if defaultLogger != nil {
		return defaultLogger.Close()
	}
	return nil
}
