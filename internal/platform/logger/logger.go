package logger

import (
	"log/slog"
	"os"
)

// New returns a structured text logger writing to stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
