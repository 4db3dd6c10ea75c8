package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigMetricsWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetricsWith(reg, "test_watcher")

	m.RecordLoadTimestamp()
	m.RecordValidationError("CRAWL_INTERVAL")
	m.RecordValidationError("CRAWL_INTERVAL")
	m.RecordFallback("CRAWL_INTERVAL")
	m.SetFallbackActive("CRAWL_INTERVAL", true)
	m.SetFallbackActive("WORKER_TIMEZONE", false)

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("CRAWL_INTERVAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("CRAWL_INTERVAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive.WithLabelValues("CRAWL_INTERVAL")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive.WithLabelValues("WORKER_TIMEZONE")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"test_watcher_config_load_timestamp",
		"test_watcher_config_validation_errors_total",
		"test_watcher_config_fallbacks_total",
		"test_watcher_config_fallback_active",
	}, names)
}

func TestNewConfigMetricsWith_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewConfigMetricsWith(reg, "dup")
	assert.Panics(t, func() { NewConfigMetricsWith(reg, "dup") })
}
