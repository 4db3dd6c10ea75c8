package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	workerPkg "board-watcher/internal/infra/worker"
	"board-watcher/internal/observability/logging"
	"board-watcher/internal/observability/tracing"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const serviceName = "board-watcher"

func loadConfig(logger *slog.Logger, metrics *workerPkg.WorkerMetrics) *workerPkg.WorkerConfig {
	cfg, _ := workerPkg.LoadConfigFromEnv(logger, metrics)
	if flagWatchList != "" {
		cfg.WatchListPath = flagWatchList
	}
	return cfg
}

// runOnce runs a single cycle with text logs and exits non-zero if it failed.
func runOnce(cmd *cobra.Command, _ []string) error {
	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := tracing.Setup(serviceName, logger)
	defer func() { _ = shutdown(context.Background()) }()

	a := newApp(logger, loadConfig(logger, nil))
	stats, err := a.runCycle(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sources=%d scraped=%d tracked=%d new=%d expired=%d images=%d failed=%d\n",
		stats.Sources, stats.Scraped, stats.Tracked, stats.New, stats.Expired,
		stats.Downloads.Written, stats.Downloads.Failed)
	return nil
}

// runScheduled runs a cycle immediately and then every Interval. Cycles never
// overlap: a tick that arrives while a cycle is running waits for it.
func runScheduled(cmd *cobra.Command, _ []string) error {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := tracing.Setup(serviceName, logger)
	defer func() { _ = shutdown(context.Background()) }()

	metrics := workerPkg.NewWorkerMetrics()
	cfg := loadConfig(logger, metrics)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.Duration("interval", cfg.Interval),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("cycle_timeout", cfg.CycleTimeout),
		slog.Duration("stagger", cfg.Stagger),
		slog.Int("health_port", cfg.HealthPort),
		slog.Int("metrics_port", cfg.MetricsPort))

	a := newApp(logger, cfg)
	a.metrics = metrics
	a.health = workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	a.health.MaxCycleAge = 3*cfg.Interval + cfg.CycleTimeout
	a.health.OpenCircuits = a.client.OpenCircuits

	go func() {
		if err := a.health.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	startMetricsServer(ctx, logger, cfg.MetricsPort, a.client)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	scheduler := cron.New(cron.WithLocation(loc), cron.WithLogger(cl))

	job := newCycleJob(cl, func() {
		_, _ = a.runCycle(ctx)
	})
	if err := startCycles(scheduler, cfg.Schedule(), job); err != nil {
		return err
	}
	a.health.SetReady(true)
	logger.Info("watcher started", slog.String("schedule", cfg.Schedule()))

	<-ctx.Done()
	a.health.SetReady(false)
	logger.Info("shutting down")

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(30 * time.Second):
		logger.Warn("running cycle did not stop in time")
	}
	return nil
}

// newCycleJob wraps run so that a panic is logged instead of killing the
// process, and a tick that fires while a cycle is still running waits for it.
func newCycleJob(logger cron.Logger, run func()) cron.Job {
	return cron.NewChain(cron.Recover(logger), cron.DelayIfStillRunning(logger)).Then(cron.FuncJob(run))
}

// startCycles registers job on schedule, starts the scheduler and runs the
// first cycle right away instead of waiting a full interval.
func startCycles(scheduler *cron.Cron, schedule string, job cron.Job) error {
	if _, err := scheduler.AddJob(schedule, job); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	scheduler.Start()
	go job.Run()
	return nil
}
