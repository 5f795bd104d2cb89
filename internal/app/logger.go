package app

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger builds an isolated logger for one App. The global slog default
// is left alone so that parallel tests do not interfere.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	switch strings.ToLower(formatStr) {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler).With("app", "portabundle")
}

// parseLevel accepts slog level names ("debug", "warn", "error+2", ...).
// Anything unparseable logs at info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
