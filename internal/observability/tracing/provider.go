package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs an SDK tracer provider as the global provider. Ended spans
// are written to logger at debug level. The returned function flushes and
// shuts the provider down.
func Setup(serviceName string, logger *slog.Logger) func(context.Context) error {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSpanProcessor(&logProcessor{logger: logger}),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown
}

// logProcessor logs every ended span.
type logProcessor struct {
	logger *slog.Logger
}

func (p *logProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{
		slog.String("span", s.Name()),
		slog.String("trace_id", s.SpanContext().TraceID().String()),
		slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
		slog.String("status", s.Status().Code.String()),
	}
	if s.Status().Description != "" {
		attrs = append(attrs, slog.String("status_description", s.Status().Description))
	}
	p.logger.Debug("span ended", attrs...)
}

func (p *logProcessor) Shutdown(context.Context) error   { return nil }
func (p *logProcessor) ForceFlush(context.Context) error { return nil }
