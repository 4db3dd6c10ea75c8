package main

import (
	"context"
	"log/slog"
	"math"
	"time"

	"board-watcher/internal/config"
	"board-watcher/internal/infra/adapter/persistence/jsonfile"
	"board-watcher/internal/infra/browser"
	"board-watcher/internal/infra/fetcher"
	"board-watcher/internal/infra/notifier"
	"board-watcher/internal/infra/scraper"
	workerPkg "board-watcher/internal/infra/worker"
	"board-watcher/internal/observability/logging"
	"board-watcher/internal/usecase/crawl"
	"board-watcher/internal/usecase/download"
)

// app holds the process-wide collaborators shared by every cycle.
type app struct {
	cfg     *workerPkg.WorkerConfig
	logger  *slog.Logger
	loader  *config.WatchListLoader
	client  *fetcher.Client
	service *crawl.Service

	metrics *workerPkg.WorkerMetrics // nil in one-shot mode
	health  *workerPkg.HealthServer  // nil in one-shot mode
}

func newApp(logger *slog.Logger, cfg *workerPkg.WorkerConfig) *app {
	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("invalid fetch configuration, using defaults", slog.Any("error", err))
		fetchCfg = fetcher.DefaultConfig()
	}
	client := fetcher.NewClient(fetchCfg)
	registry := scraper.NewRegistry()

	orchestrator := crawl.NewOrchestrator(client, registry)
	orchestrator.Stagger = cfg.Stagger
	orchestrator.Reason = fetcher.Reason

	var renderer download.Renderer = client
	if cfg.BrowserEnabled {
		bcfg := browser.DefaultConfig()
		bcfg.ExecPath = cfg.BrowserExecPath
		bcfg.Settle = cfg.BrowserSettle
		bcfg.UserAgent = fetchCfg.UserAgent
		renderer = browser.NewRenderer(bcfg, client, logger)
	}
	cascade := download.NewCascade(renderer, registry, client, download.Config{
		Rate:  cfg.DownloadRate,
		Burst: int(math.Ceil(cfg.DownloadRate)),
	}, logger)

	var newEntries notifier.Notifier = notifier.NewNoOpNotifier()
	if cfg.DiscordEnabled {
		newEntries = notifier.NewDiscordNotifier(notifier.DiscordConfig{
			WebhookURL: cfg.DiscordWebhookURL,
			Timeout:    10 * time.Second,
		})
	}

	service := crawl.NewService(orchestrator, jsonfile.NewEntryRepo(), cascade, newEntries)
	service.ImageSource = cfg.ImageSource
	service.FetchTimeout = cfg.CycleTimeout

	logger.Info("watcher wired",
		slog.String("watchlist", cfg.WatchListPath),
		slog.String("image_source", string(cfg.ImageSource)),
		slog.Bool("browser", cfg.BrowserEnabled),
		slog.Bool("discord", cfg.DiscordEnabled),
		slog.Duration("fetch_timeout", fetchCfg.Timeout),
		slog.Float64("download_rate", cfg.DownloadRate))

	return &app{
		cfg:     cfg,
		logger:  logger,
		loader:  config.NewWatchListLoader(cfg.WatchListPath, logger),
		client:  client,
		service: service,
	}
}

// runCycle re-reads the watch list and runs one cycle. Only ctx cancellation
// stops it early; the fetch phase is bounded by the service.
func (a *app) runCycle(ctx context.Context) (*crawl.CycleStats, error) {
	ctx, logger := logging.StartCycle(ctx, a.logger)

	start := time.Now()
	logger.Info("cycle started")

	wl, err := a.loader.Load()
	if err != nil {
		logger.Error("failed to load watch list, skipping cycle", slog.Any("error", err))
		a.record(start, nil, err)
		return nil, err
	}

	stats, err := a.service.RunCycle(ctx, wl)
	if err != nil {
		logger.Error("cycle ended early", slog.Any("error", err))
	}
	a.record(start, stats, err)
	return stats, err
}

func (a *app) record(start time.Time, stats *crawl.CycleStats, err error) {
	if a.metrics != nil {
		newEntries := 0
		if stats != nil {
			newEntries = stats.New
		}
		a.metrics.RecordCycle(time.Since(start).Seconds(), newEntries, err)
	}
	if a.health != nil {
		a.health.RecordCycle(err)
	}
}
