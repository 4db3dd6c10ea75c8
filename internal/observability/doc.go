// Package observability groups the watcher's logging, metrics, and tracing helpers.
//
// Subpackages:
//   - logging: slog construction and cycle-scoped loggers
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer and span helpers
package observability
