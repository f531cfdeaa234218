package app

import (
	"io"
	"log/slog"
)

// newLogger builds the app's isolated logger. The global default is left
// untouched so embedding code keeps its own logging setup.
func newLogger(level slog.Level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
