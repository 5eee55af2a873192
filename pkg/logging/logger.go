package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a slog logger writing JSON records to stdout. Unknown
// levels fall back to info.
func NewLogger(service, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return newLogger(os.Stdout, service, lvl)
}

// Discard returns a logger that drops every record. Handy in tests.
func Discard() *slog.Logger {
	return newLogger(io.Discard, "test", slog.LevelError)
}

func newLogger(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: level})
	return slog.New(handler).With(slog.String("service", service))
}
