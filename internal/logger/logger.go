// Package logger wraps log/slog for the CLI and the force driver.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default is the process-wide logger. Diagnostics go to stderr so that
// command output on stdout stays machine readable.
var Default *slog.Logger

func init() {
	Default = NewText("warn", os.Stderr)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a JSON logger.
func New(level string, output io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// NewText creates a text logger.
func NewText(level string, output io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func SetDefault(l *slog.Logger) {
	Default = l
	slog.SetDefault(l)
}

// Or returns l, or Default when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Default
	}
	return l
}
