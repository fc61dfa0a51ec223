package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveRequest("search", OutcomeSuccess, 10*time.Millisecond)
	m.ObserveRequest("search", OutcomeRateLimited, 10*time.Millisecond)
	m.IncRetry("search")
	m.IncRetry("search")
	m.IncStreamRecord("bulk_export")

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("search", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("search", OutcomeRateLimited)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RetriesTotal.WithLabelValues("search")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StreamRecords.WithLabelValues("bulk_export")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestNewMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.IncRetry("search")
	second.IncRetry("search")

	assert.InDelta(t, 2, testutil.ToFloat64(first.RetriesTotal.WithLabelValues("search")), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("host", OutcomeError, time.Second)
		m.IncRetry("search")
		m.IncStreamRecord("bulk_service")
	})
}
