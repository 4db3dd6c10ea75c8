package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func probe(t *testing.T, h *HealthServer, path string) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
	return rec.Code, resp
}

func TestHealthServer_Liveness(t *testing.T) {
	h := NewHealthServer(":0", testLogger())

	code, resp := probe(t, h, "/health")
	if code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
}

func TestHealthServer_Readiness(t *testing.T) {
	h := NewHealthServer(":0", testLogger())

	code, resp := probe(t, h, "/health/ready")
	if code != http.StatusServiceUnavailable || resp.Status != "not ready" {
		t.Errorf("before SetReady: got %d %q", code, resp.Status)
	}

	h.SetReady(true)
	code, resp = probe(t, h, "/health/ready")
	if code != http.StatusOK || resp.Status != "ok" {
		t.Errorf("after SetReady: got %d %q", code, resp.Status)
	}

	h.SetReady(false)
	code, _ = probe(t, h, "/health/ready")
	if code != http.StatusServiceUnavailable {
		t.Errorf("after SetReady(false): expected 503, got %d", code)
	}
}

func TestHealthServer_RecordCycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHealthServer(":0", testLogger())
	h.now = func() time.Time { return now }
	h.MaxCycleAge = 15 * time.Minute
	h.OpenCircuits = func() []string { return []string{"gall.dcinside.com"} }
	h.SetReady(true)

	h.RecordCycle(nil)
	code, resp := probe(t, h, "/health/ready")
	if code != http.StatusOK {
		t.Errorf("expected 200 after a successful cycle, got %d", code)
	}
	if resp.LastSuccess != "2026-01-01T12:00:00Z" {
		t.Errorf("unexpected last_success %q", resp.LastSuccess)
	}
	if len(resp.OpenCircuits) != 1 || resp.OpenCircuits[0] != "gall.dcinside.com" {
		t.Errorf("unexpected open_circuits %v", resp.OpenCircuits)
	}

	h.RecordCycle(errors.New("context deadline exceeded"))
	_, resp = probe(t, h, "/health/ready")
	if resp.LastError != "context deadline exceeded" {
		t.Errorf("unexpected last_error %q", resp.LastError)
	}

	now = now.Add(time.Hour)
	code, resp = probe(t, h, "/health/ready")
	if code != http.StatusServiceUnavailable || resp.Status != "stale" {
		t.Errorf("expected stale 503, got %d %q", code, resp.Status)
	}
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	h := NewHealthServer("localhost:0", testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != http.ErrServerClosed {
			t.Errorf("expected http.ErrServerClosed, got %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
