package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for authentication decisions.
type Metrics struct {
	decisionsTotal *prometheus.CounterVec
}

// NewMetrics creates auth metrics registered with the given registerer.
// A nil registerer registers with the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		decisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "auth",
				Name:      "decisions_total",
				Help:      "Total number of authentication decisions",
			},
			[]string{"credential", "result"},
		),
	}
}

// RecordDecision records an authentication decision.
func (m *Metrics) RecordDecision(credential, result string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(credential, result).Inc()
}
