// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global otel tracer provider. Without an SDK
// provider installed the spans are no-ops, so instrumented code has no cost
// until an exporter is configured.
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "crawl.cycle")
//	defer span.End()
package tracing
