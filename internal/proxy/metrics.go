package proxy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for proxy operations.
type Metrics struct {
	forwardsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// NewMetrics creates proxy metrics registered with the given registerer.
// A nil registerer registers with the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		forwardsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "forwards_total",
				Help:      "Total number of proxied requests",
			},
			[]string{"service", "method", "status"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "errors_total",
				Help:      "Total number of proxy errors",
			},
			[]string{"service", "error_type"},
		),
		backendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "backend_duration_seconds",
				Help:      "Duration of backend requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service"},
		),
	}
}

// RecordForward records a relayed backend response.
func (m *Metrics) RecordForward(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.forwardsTotal.WithLabelValues(service, method, status).Inc()
	m.backendDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordError records a proxy failure.
func (m *Metrics) RecordError(service, errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(service, errorType).Inc()
}
