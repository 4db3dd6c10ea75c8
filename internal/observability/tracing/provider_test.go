package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_LogsEndedSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	shutdown := Setup("board-watcher-test", logger)

	_, span := StartSpan(context.Background(), "crawl.cycle")
	RecordError(span, errors.New("context canceled"))
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"span":"crawl.cycle"`)
	assert.Contains(t, buf.String(), `"status":"Error"`)
	assert.Contains(t, buf.String(), `"status_description":"context canceled"`)
}

func TestSetup_QuietAboveDebug(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	shutdown := Setup("board-watcher-test", logger)

	_, span := StartSpan(context.Background(), "crawl.fetch_source")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Empty(t, buf.String())
}
