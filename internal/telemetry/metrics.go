package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CarrierErrors   *prometheus.CounterVec
	RetriesTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dhlbridge_requests_total",
				Help: "Total number of carrier requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dhlbridge_request_duration_seconds",
				Help:    "Carrier request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CarrierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dhlbridge_carrier_errors_total",
				Help: "Total carrier API errors by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		RetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dhlbridge_retries_total",
				Help: "Retry attempts consumed by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(operation, kind string) {
	m.CarrierErrors.WithLabelValues(operation, kind).Inc()
}

// RecordRetries records how much retry budget a call consumed.
func (m *Metrics) RecordRetries(operation string, n int) {
	if n > 0 {
		m.RetriesTotal.WithLabelValues(operation).Add(float64(n))
	}
}
