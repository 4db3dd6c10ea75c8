// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package. Every crawl cycle
// gets its own logger carrying a cycle_id so all lines of one cycle can be
// grouped, including lines written from concurrent fetch tasks.
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx, cycleLogger := logging.StartCycle(context.Background(), logger)
//	cycleLogger.Info("cycle started")
//	// deeper code:
//	logging.FromContext(ctx).Warn("fetch failed", slog.Any("error", err))
package logging
