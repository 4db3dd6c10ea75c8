package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HealthServer serves the liveness and readiness probes.
//
//   - /health always answers 200.
//   - /health/ready answers 200 once SetReady(true) was called and the last
//     successful cycle is younger than MaxCycleAge, 503 otherwise.
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady *atomic.Bool
	server  *http.Server

	// MaxCycleAge marks the watcher unready when no cycle succeeded for this
	// long. Zero disables the check.
	MaxCycleAge time.Duration

	// OpenCircuits, when set, lists hosts currently skipped by their breaker.
	OpenCircuits func() []string

	mu          sync.RWMutex
	lastSuccess time.Time
	lastError   string
	now         func() time.Time
}

type healthResponse struct {
	Status       string   `json:"status"`
	LastSuccess  string   `json:"last_success,omitempty"`
	LastError    string   `json:"last_error,omitempty"`
	OpenCircuits []string `json:"open_circuits,omitempty"`
}

// NewHealthServer creates a server that is not ready and not started.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{
		addr:    addr,
		logger:  logger,
		isReady: &atomic.Bool{},
		now:     time.Now,
	}
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	return mux
}

// Start serves until ctx is canceled, then shuts down within 5 seconds.
// It returns http.ErrServerClosed after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		return http.ErrServerClosed

	case err := <-errChan:
		if err != http.ErrServerClosed {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness state.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// RecordCycle stores the outcome of a finished cycle.
func (h *HealthServer) RecordCycle(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.lastError = err.Error()
		return
	}
	h.lastSuccess = h.now()
	h.lastError = ""
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	resp := healthResponse{Status: "ok", LastError: h.lastError}
	lastSuccess := h.lastSuccess
	h.mu.RUnlock()

	if !lastSuccess.IsZero() {
		resp.LastSuccess = lastSuccess.UTC().Format(time.RFC3339)
	}
	if h.OpenCircuits != nil {
		resp.OpenCircuits = h.OpenCircuits()
	}

	code := http.StatusOK
	switch {
	case !h.isReady.Load():
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	case h.MaxCycleAge > 0 && !lastSuccess.IsZero() && h.now().Sub(lastSuccess) > h.MaxCycleAge:
		resp.Status = "stale"
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, resp)
}

func (h *HealthServer) writeJSON(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
