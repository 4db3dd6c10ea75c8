// Package logging provides structured logging utilities using the standard library's log/slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// NewLogger creates a new structured logger with JSON output on stdout.
// The log level is controlled via the LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error
// Default level: info
func NewLogger() *slog.Logger {
	return newJSONLogger(os.Stdout, levelFromEnv())
}

// NewTextLogger creates a new structured logger with human-readable text output.
// This is used by the `once` command when run interactively.
func NewTextLogger() *slog.Logger {
	logLevel := levelFromEnv()
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelDebug,
	})
	return slog.New(handler)
}

func newJSONLogger(w io.Writer, logLevel slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
		// Add source code location in debug mode
		AddSource: logLevel <= slog.LevelDebug,
	})
	return slog.New(handler)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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

// StartCycle derives a logger tagged with a fresh cycle ID and stores it in ctx.
// It returns the derived context and logger.
func StartCycle(ctx context.Context, logger *slog.Logger) (context.Context, *slog.Logger) {
	cycleLogger := logger.With(slog.String("cycle_id", uuid.NewString()))
	return WithLogger(ctx, cycleLogger), cycleLogger
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// FromContextOr returns the logger stored in ctx, or fallback if there is none.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
			return logger
		}
	}
	return fallback
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
