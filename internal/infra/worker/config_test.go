package worker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"board-watcher/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 300*time.Second, cfg.Interval)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, 500*time.Millisecond, cfg.Stagger)
	assert.Equal(t, entity.TagDC, cfg.ImageSource)
	assert.False(t, cfg.BrowserEnabled)
	assert.False(t, cfg.DiscordEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Schedule(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "@every 5m0s", cfg.Schedule())

	cfg.Interval = 90 * time.Second
	assert.Equal(t, "@every 1m30s", cfg.Schedule())
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr string
	}{
		{name: "interval too short", mutate: func(c *WorkerConfig) { c.Interval = time.Second }, wantErr: "interval"},
		{name: "bad timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Nowhere/Land" }, wantErr: "timezone"},
		{name: "zero cycle timeout", mutate: func(c *WorkerConfig) { c.CycleTimeout = 0 }, wantErr: "cycle timeout"},
		{name: "negative stagger", mutate: func(c *WorkerConfig) { c.Stagger = -time.Second }, wantErr: "stagger"},
		{name: "privileged port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }, wantErr: "health port"},
		{name: "metrics port out of range", mutate: func(c *WorkerConfig) { c.MetricsPort = 70000 }, wantErr: "metrics port"},
		{name: "same ports", mutate: func(c *WorkerConfig) { c.MetricsPort = c.HealthPort }, wantErr: "must differ"},
		{name: "empty watch list", mutate: func(c *WorkerConfig) { c.WatchListPath = "" }, wantErr: "watch list"},
		{name: "unknown image source", mutate: func(c *WorkerConfig) { c.ImageSource = "xx" }, wantErr: "image source"},
		{name: "zero download rate", mutate: func(c *WorkerConfig) { c.DownloadRate = 0 }, wantErr: "download rate"},
		{name: "discord without webhook", mutate: func(c *WorkerConfig) { c.DiscordEnabled = true }, wantErr: "discord webhook"},
		{name: "zero stagger is fine", mutate: func(c *WorkerConfig) { c.Stagger = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "10m")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("CYCLE_TIMEOUT", "15m")
	t.Setenv("FETCH_STAGGER", "1s")
	t.Setenv("WORKER_HEALTH_PORT", "8081")
	t.Setenv("METRICS_PORT", "8082")
	t.Setenv("WATCHLIST_PATH", "/etc/watcher")
	t.Setenv("IMAGE_SOURCE", "fm")
	t.Setenv("BROWSER_ENABLED", "true")
	t.Setenv("BROWSER_EXEC_PATH", "/usr/bin/chromium")
	t.Setenv("BROWSER_SETTLE", "2s")
	t.Setenv("DOWNLOAD_RATE", "1.5")
	t.Setenv("DISCORD_ENABLED", "yes")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	m := NewWorkerMetricsWith(prometheus.NewRegistry())
	cfg, err := LoadConfigFromEnv(testLogger(), m)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.CycleTimeout)
	assert.Equal(t, time.Second, cfg.Stagger)
	assert.Equal(t, 8081, cfg.HealthPort)
	assert.Equal(t, 8082, cfg.MetricsPort)
	assert.Equal(t, "/etc/watcher", cfg.WatchListPath)
	assert.Equal(t, entity.TagFM, cfg.ImageSource)
	assert.True(t, cfg.BrowserEnabled)
	assert.Equal(t, "/usr/bin/chromium", cfg.BrowserExecPath)
	assert.Equal(t, 2*time.Second, cfg.BrowserSettle)
	assert.Equal(t, 1.5, cfg.DownloadRate)
	assert.True(t, cfg.DiscordEnabled)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive.WithLabelValues("any")))
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "5s")
	t.Setenv("WORKER_TIMEZONE", "Invalid/Zone")
	t.Setenv("IMAGE_SOURCE", "reddit")
	t.Setenv("DOWNLOAD_RATE", "fast")
	t.Setenv("DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_WEBHOOK_URL", "not a url")

	m := NewWorkerMetricsWith(prometheus.NewRegistry())
	cfg, err := LoadConfigFromEnv(testLogger(), m)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Interval, cfg.Interval)
	assert.Equal(t, def.Timezone, cfg.Timezone)
	assert.Equal(t, def.ImageSource, cfg.ImageSource)
	assert.Equal(t, def.DownloadRate, cfg.DownloadRate)
	assert.False(t, cfg.DiscordEnabled)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("CRAWL_INTERVAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("DISCORD_WEBHOOK_URL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive.WithLabelValues("any")))
}

func TestLoadConfigFromEnv_NilMetrics(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "bogus")
	cfg, err := LoadConfigFromEnv(testLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, cfg.Interval)
}
