// Package telemetry holds the Prometheus collectors recorded by the client.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
	OutcomeTransport   = "transport_error"
)

// Metrics holds the client collectors. A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	StreamRecords   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by another client on the same registry are
// reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakix_client_requests_total",
				Help: "LeakIX API requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leakix_client_request_duration_seconds",
				Help:    "LeakIX API request duration, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakix_client_retries_total",
				Help: "Retries after HTTP 429 by operation",
			},
			[]string{"operation"},
		),
		StreamRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakix_client_stream_records_total",
				Help: "Records decoded from NDJSON streams by operation",
			},
			[]string{"operation"},
		),
	}

	var err error
	if m.RequestsTotal, err = register(reg, m.RequestsTotal); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = register(reg, m.RequestDuration); err != nil {
		return nil, err
	}
	if m.RetriesTotal, err = register(reg, m.RetriesTotal); err != nil {
		return nil, err
	}
	if m.StreamRecords, err = register(reg, m.StreamRecords); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// ObserveRequest records one logical operation.
func (m *Metrics) ObserveRequest(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncRetry records one 429 retry.
func (m *Metrics) IncRetry(operation string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(operation).Inc()
}

// IncStreamRecord records one decoded stream line.
func (m *Metrics) IncStreamRecord(operation string) {
	if m == nil {
		return
	}
	m.StreamRecords.WithLabelValues(operation).Inc()
}
