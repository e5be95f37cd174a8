package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry conflicts.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	CarrierCallDuration *prometheus.HistogramVec
	ServiceabilityItems *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trovecart_shipping_requests_total",
				Help: "Total number of orchestrator requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		CarrierCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trovecart_shipping_carrier_call_duration_seconds",
				Help:    "Carrier API call duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ServiceabilityItems: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trovecart_shipping_serviceability_items_total",
				Help: "Serviceability batch items by outcome",
			},
			[]string{"status"},
		),
	}
}

// RecordRequest records an orchestrator request outcome.
func (m *Metrics) RecordRequest(operation, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordCarrierCall records the duration of one carrier API call.
func (m *Metrics) RecordCarrierCall(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.CarrierCallDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordServiceabilityItem records the outcome of one batch item.
func (m *Metrics) RecordServiceabilityItem(status string) {
	if m == nil {
		return
	}
	m.ServiceabilityItems.WithLabelValues(status).Inc()
}
