package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Text output on stdout keeps local
// development readable; a JSON handler can be swapped in behind this function.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
