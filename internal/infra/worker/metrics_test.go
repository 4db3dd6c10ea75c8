package worker

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWorkerMetrics_RecordCycle(t *testing.T) {
	m := NewWorkerMetricsWith(prometheus.NewRegistry())

	m.RecordCycle(12.5, 3, nil)
	m.RecordCycle(40, 0, errors.New("canceled"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleRunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CycleNewEntriesTotal))
	assert.Greater(t, testutil.ToFloat64(m.CycleLastSuccessTimestamp), 0.0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDurationSeconds))
}
