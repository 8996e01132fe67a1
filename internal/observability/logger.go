package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process logger: JSON to stdout, tagged with the
// service and environment, with context fields attached per record.
func NewLogger(service, env string) *slog.Logger {
	return NewLoggerTo(os.Stdout, env).With("service", service)
}

// NewLoggerTo logs at debug in dev and at info elsewhere. LOG_LEVEL
// overrides either.
func NewLoggerTo(w io.Writer, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     levelFor(env, os.Getenv("LOG_LEVEL")),
		AddSource: env == "dev",
	})

	return slog.New(NewContextHandler(handler)).With("env", env)
}

func levelFor(env, override string) slog.Level {
	var lvl slog.Level
	if override != "" && lvl.UnmarshalText([]byte(strings.TrimSpace(override))) == nil {
		return lvl
	}
	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
