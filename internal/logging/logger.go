// Package logging configures slog: JSON to stdout plus an optional database
// sink for ERROR records.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONHandler writes JSON records at or above the level named by level
// ("debug", "info", "warn", "error"; anything else means info).
func NewJSONHandler(w io.Writer, level string) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
}

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

// Setup installs the default logger writing JSON to stdout and to every
// extra handler given.
func Setup(level string, extra ...slog.Handler) *slog.Logger {
	var h slog.Handler = NewJSONHandler(os.Stdout, level)
	if len(extra) > 0 {
		h = NewMultiHandler(append([]slog.Handler{h}, extra...)...)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
