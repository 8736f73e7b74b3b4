package health

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for backend health probes.
type Metrics struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
}

// NewMetrics creates health metrics registered with the given registerer.
// A nil registerer registers with the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "health",
				Name:      "probes_total",
				Help:      "Total number of backend health probes",
			},
			[]string{"service", "result"},
		),
		probeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "health",
				Name:      "probe_duration_seconds",
				Help:      "Duration of backend health probes",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service"},
		),
	}
}

// RecordProbe records a health probe outcome.
func (m *Metrics) RecordProbe(service, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(service, result).Inc()
	m.probeDuration.WithLabelValues(service).Observe(duration.Seconds())
}
