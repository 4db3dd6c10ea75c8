package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CircuitReporter lists hosts currently skipped by their breaker.
type CircuitReporter interface {
	OpenCircuits() []string
}

type circuitsResponse struct {
	Healthy      bool     `json:"healthy"`
	OpenCircuits []string `json:"open_circuits"`
}

// metricsHandler serves /metrics, /health and /health/circuits.
func metricsHandler(circuits CircuitReporter) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/health/circuits", func(w http.ResponseWriter, _ *http.Request) {
		open := circuits.OpenCircuits()
		if open == nil {
			open = []string{}
		}
		// an open breaker is a skipped host, not an unhealthy process
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(circuitsResponse{Healthy: len(open) == 0, OpenCircuits: open})
	})
	return mux
}

// startMetricsServer serves metricsHandler on port until ctx is canceled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, circuits CircuitReporter) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsHandler(circuits),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		}
	}()

	return server
}
