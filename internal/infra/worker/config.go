// Package worker holds the long-running watcher's configuration, health
// endpoints and cycle metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/pkg/config"
)

// WorkerConfig controls the polling loop and the optional components wired
// around it. Every field has a default; LoadConfigFromEnv never fails.
type WorkerConfig struct {
	// Interval is the pause between the starts of two cycles.
	Interval time.Duration

	// Timezone is the scheduler's location. Board dates are always read in KST.
	Timezone string

	// CycleTimeout bounds the fetch phase of one cycle. Persisting and
	// downloading newly discovered entries always run to completion.
	CycleTimeout time.Duration

	// Stagger spaces out source fetches: task i waits i*Stagger.
	Stagger time.Duration

	HealthPort  int
	MetricsPort int

	WatchListPath string

	// ImageSource is the tag whose new entries feed the download cascade.
	ImageSource entity.SourceTag

	BrowserEnabled  bool
	BrowserExecPath string
	BrowserSettle   time.Duration

	// DownloadRate is the image request rate in requests per second.
	DownloadRate float64

	DiscordEnabled    bool
	DiscordWebhookURL string
}

// DefaultConfig returns the production defaults: a 300s loop, KST schedule,
// 500ms stagger and no optional components.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Interval:      300 * time.Second,
		Timezone:      "Asia/Seoul",
		CycleTimeout:  30 * time.Minute,
		Stagger:       500 * time.Millisecond,
		HealthPort:    9091,
		MetricsPort:   9090,
		WatchListPath: "./watchlist.yaml",
		ImageSource:   entity.TagDC,
		BrowserSettle: 5 * time.Second,
		DownloadRate:  4,
	}
}

// Schedule returns the cron spec that runs a cycle every Interval.
func (c *WorkerConfig) Schedule() string {
	return "@every " + c.Interval.String()
}

// Validate collects every invalid field into one error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateInterval(c.Interval); err != nil {
		errs = append(errs, fmt.Errorf("interval: %w", err))
	} else if err := config.ValidateCronSchedule(c.Schedule()); err != nil {
		errs = append(errs, fmt.Errorf("interval: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.CycleTimeout); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := config.ValidateNonNegativeDuration(c.Stagger); err != nil {
		errs = append(errs, fmt.Errorf("stagger: %w", err))
	}
	if err := config.ValidatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}
	if c.WatchListPath == "" {
		errs = append(errs, fmt.Errorf("watch list path: cannot be empty"))
	}
	if !c.ImageSource.IsKnown() {
		errs = append(errs, fmt.Errorf("image source: unknown tag %q", c.ImageSource))
	}
	if err := config.ValidatePositiveDuration(c.BrowserSettle); err != nil {
		errs = append(errs, fmt.Errorf("browser settle: %w", err))
	}
	if err := config.ValidatePositiveFloat(c.DownloadRate); err != nil {
		errs = append(errs, fmt.Errorf("download rate: %w", err))
	}
	if c.DiscordEnabled {
		if err := config.ValidateWebhookURL(c.DiscordWebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("discord webhook: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads the configuration from the environment.
// Invalid values fall back to their default with a warning and a metric.
// Discord is disabled when enabled without a usable webhook URL.
// The returned error is always nil.
//
// Variables: CRAWL_INTERVAL, WORKER_TIMEZONE, CYCLE_TIMEOUT, FETCH_STAGGER,
// WORKER_HEALTH_PORT, METRICS_PORT, WATCHLIST_PATH, IMAGE_SOURCE,
// BROWSER_ENABLED, BROWSER_EXEC_PATH, BROWSER_SETTLE, DOWNLOAD_RATE,
// DISCORD_ENABLED and DISCORD_WEBHOOK_URL.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	l := envLoader{logger: logger, metrics: metrics}

	cfg.Interval = l.apply("CRAWL_INTERVAL",
		config.LoadEnvDuration("CRAWL_INTERVAL", cfg.Interval, config.ValidateInterval)).(time.Duration)
	cfg.Timezone = l.apply("WORKER_TIMEZONE",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).(string)
	cfg.CycleTimeout = l.apply("CYCLE_TIMEOUT",
		config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		})).(time.Duration)
	cfg.Stagger = l.apply("FETCH_STAGGER",
		config.LoadEnvDuration("FETCH_STAGGER", cfg.Stagger, func(d time.Duration) error {
			return config.ValidateDuration(d, 0, 10*time.Second)
		})).(time.Duration)
	cfg.HealthPort = l.apply("WORKER_HEALTH_PORT",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.ValidatePort)).(int)
	cfg.MetricsPort = l.apply("METRICS_PORT",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.ValidatePort)).(int)
	cfg.WatchListPath = config.LoadEnvString("WATCHLIST_PATH", cfg.WatchListPath)
	cfg.ImageSource = entity.SourceTag(l.apply("IMAGE_SOURCE",
		config.LoadEnvWithFallback("IMAGE_SOURCE", string(cfg.ImageSource), func(s string) error {
			if !entity.SourceTag(s).IsKnown() {
				return fmt.Errorf("unknown source tag %q", s)
			}
			return nil
		})).(string))

	cfg.BrowserEnabled = l.apply("BROWSER_ENABLED", config.LoadEnvBool("BROWSER_ENABLED", false)).(bool)
	cfg.BrowserExecPath = config.LoadEnvString("BROWSER_EXEC_PATH", "")
	cfg.BrowserSettle = l.apply("BROWSER_SETTLE",
		config.LoadEnvDuration("BROWSER_SETTLE", cfg.BrowserSettle, config.ValidatePositiveDuration)).(time.Duration)
	cfg.DownloadRate = l.apply("DOWNLOAD_RATE",
		config.LoadEnvFloat("DOWNLOAD_RATE", cfg.DownloadRate, config.ValidatePositiveFloat)).(float64)

	cfg.DiscordEnabled = l.apply("DISCORD_ENABLED", config.LoadEnvBool("DISCORD_ENABLED", false)).(bool)
	cfg.DiscordWebhookURL = config.LoadEnvString("DISCORD_WEBHOOK_URL", "")
	if cfg.DiscordEnabled {
		if err := config.ValidateWebhookURL(cfg.DiscordWebhookURL); err != nil {
			cfg.DiscordEnabled = false
			l.fallback("DISCORD_WEBHOOK_URL", fmt.Sprintf("DISCORD_WEBHOOK_URL: %v, discord notifications disabled", err))
		}
	}

	if metrics != nil {
		metrics.SetFallbackActive("any", l.fallbackApplied)
		metrics.RecordLoadTimestamp()
	}
	return &cfg, nil
}

type envLoader struct {
	logger          *slog.Logger
	metrics         *WorkerMetrics
	fallbackApplied bool
}

func (l *envLoader) apply(field string, res config.ConfigLoadResult) interface{} {
	if res.FallbackApplied {
		for _, w := range res.Warnings {
			l.fallback(field, w)
		}
	}
	return res.Value
}

func (l *envLoader) fallback(field, warning string) {
	l.fallbackApplied = true
	if l.metrics != nil {
		l.metrics.RecordValidationError(field)
		l.metrics.RecordFallback(field)
	}
	if l.logger != nil {
		l.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
}
