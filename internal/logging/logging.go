// Package logging builds the slog loggers used by the arps command.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New creates a text logger writing to w at the given level. The command
// passes stderr so logs never mix with CSV written to stdout.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelFromString(level),
	})

	return slog.New(handler)
}

// LevelFromString maps a level name to a slog.Level. An empty name means
// info; unknown names mean debug.
func LevelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
