// Package logger provides structured logging for all components.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" or "text"
}

// Logger wraps slog with the small surface the rest of the code uses.
type Logger struct {
	logger *slog.Logger
}

// New creates a new structured logger.
func New(config Config) *Logger {
	var level slog.Level
	switch strings.ToLower(config.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// WithField returns a logger with an additional field attached to every record.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With(key, value)}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.logger.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.logger.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.logger.Warn(msg, args...)
}

func (l *Logger) Error(err error, msg string, args ...interface{}) {
	if err != nil {
		args = append(args, "error", err)
	}
	l.logger.Error(msg, args...)
}

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(err error, msg string, args ...interface{}) {
	l.Error(err, msg, args...)
	os.Exit(1)
}

var defaultLogger = New(Config{Level: "info", Format: "text"})

// Init replaces the default logger used by the package-level functions.
func Init(config Config) {
	defaultLogger = New(config)
}

func Debug(msg string, args ...interface{}) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...interface{})  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...interface{})  { defaultLogger.Warn(msg, args...) }

func Error(err error, msg string, args ...interface{}) { defaultLogger.Error(err, msg, args...) }
func Fatal(err error, msg string, args ...interface{}) { defaultLogger.Fatal(err, msg, args...) }

func WithField(key string, value interface{}) *Logger { return defaultLogger.WithField(key, value) }
