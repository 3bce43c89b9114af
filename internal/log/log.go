package log

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Package log is the single logging entry point for the application.
// Call sites pass a message plus alternating key/value pairs.

var current atomic.Pointer[slog.Logger]

func init() {
	Configure("info", "console")
}

// Configure sets the global log level and output format.
// Level is one of trace, debug, info, warn, error; format is console or json.
func Configure(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "trace", "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	current.Store(slog.New(handler))
}

func get() *slog.Logger {
	return current.Load()
}

// Debug logs at debug level with key/value pairs
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs at info level with key/value pairs
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs at warn level with key/value pairs
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs at error level with key/value pairs
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}
