package worker

import (
	"board-watcher/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics tracks configuration loading and polling cycles.
//
//   - watcher_cycle_runs_total{status}
//   - watcher_cycle_duration_seconds
//   - watcher_cycle_entries_new_total
//   - watcher_cycle_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	CycleRunsTotal            *prometheus.CounterVec
	CycleDurationSeconds      prometheus.Histogram
	CycleNewEntriesTotal      prometheus.Counter
	CycleLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "watcher"),

		CycleRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_cycle_runs_total",
			Help: "Total number of polling cycles by status (success/failure)",
		}, []string{"status"}),

		// a cycle takes at least the stagger of its last source
		CycleDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "watcher_cycle_duration_seconds",
			Help:    "Duration of a polling cycle in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
		}),

		CycleNewEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "watcher_cycle_entries_new_total",
			Help: "Total number of newly discovered entries across all cycles",
		}),

		CycleLastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "watcher_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful polling cycle",
		}),
	}
}

// RecordCycle records one finished cycle.
func (m *WorkerMetrics) RecordCycle(seconds float64, newEntries int, err error) {
	m.CycleDurationSeconds.Observe(seconds)
	m.CycleNewEntriesTotal.Add(float64(newEntries))
	if err != nil {
		m.CycleRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.CycleRunsTotal.WithLabelValues("success").Inc()
	m.CycleLastSuccessTimestamp.SetToCurrentTime()
}
