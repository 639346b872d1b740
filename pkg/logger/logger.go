// Package logger configures the process-wide slog logger and carries
// request and query identifiers through contexts.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	queryIDKey
)

// Setup installs the default logger writing to stdout.
func Setup(level string, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter installs the default logger writing to w in "json" or text
// format.
func SetupWriter(w io.Writer, level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

// FromContext returns the default logger annotated with whatever request
// and query IDs ctx carries.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		logger = logger.With("request_id", requestID)
	}
	if queryID, ok := ctx.Value(queryIDKey).(string); ok {
		logger = logger.With("query_id", queryID)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
