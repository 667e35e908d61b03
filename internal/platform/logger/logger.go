package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output keeps local logs readable;
// structured attributes still survive for aggregation.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
