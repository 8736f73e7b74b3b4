// Package health answers liveness for the gateway itself and aggregates the
// health of every registered backend service.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/campushub/gateway/internal/observability"
	"github.com/campushub/gateway/internal/registry"
)

// Status represents a probed service's health.
type Status string

const (
	// StatusHealthy indicates the service answered 200.
	StatusHealthy Status = "healthy"

	// StatusUnhealthy indicates any other answer or a transport failure.
	StatusUnhealthy Status = "unhealthy"
)

// DefaultProbeTimeout bounds each per-service probe.
const DefaultProbeTimeout = 5 * time.Second

// ServiceStatus is one service's probe result.
type ServiceStatus struct {
	Status     Status `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Aggregator probes every registered service concurrently. Results are
// rebuilt on every call and never cached.
type Aggregator struct {
	registry     *registry.Registry
	client       *http.Client
	probeTimeout time.Duration
	logger       observability.Logger
	metrics      *Metrics
}

// AggregatorOption is a functional option for configuring the aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorLogger sets the logger for the aggregator.
func WithAggregatorLogger(logger observability.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithAggregatorMetrics sets the metrics for the aggregator.
func WithAggregatorMetrics(metrics *Metrics) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = metrics
	}
}

// WithProbeClient sets the outbound HTTP client used for probes.
func WithProbeClient(client *http.Client) AggregatorOption {
	return func(a *Aggregator) {
		a.client = client
	}
}

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(timeout time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.probeTimeout = timeout
	}
}

// NewAggregator creates a new health aggregator over the given registry.
func NewAggregator(reg *registry.Registry, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		registry:     reg,
		client:       &http.Client{},
		probeTimeout: DefaultProbeTimeout,
		logger:       observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Check probes every registered service concurrently and joins on all
// results. Each probe has its own timeout, so one dead service cannot delay
// the others: total latency approximates the slowest single probe.
func (a *Aggregator) Check(ctx context.Context) map[string]ServiceStatus {
	entries := a.registry.Entries()
	results := make([]ServiceStatus, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry registry.Entry) {
			defer wg.Done()
			results[i] = a.probe(ctx, entry)
		}(i, entry)
	}
	wg.Wait()

	statuses := make(map[string]ServiceStatus, len(entries))
	for i, entry := range entries {
		statuses[entry.Name] = results[i]
	}

	return statuses
}

// probe issues a single GET {base_url}{health_path} bounded by the probe
// timeout.
func (a *Aggregator) probe(ctx context.Context, entry registry.Entry) ServiceStatus {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	target := probeURL(entry)

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target, http.NoBody)
	if err != nil {
		a.metrics.RecordProbe(entry.Name, "error", time.Since(start))
		return ServiceStatus{Status: StatusUnhealthy, Error: err.Error()}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.RecordProbe(entry.Name, "error", time.Since(start))
		a.logger.Warn("health probe failed",
			observability.String("service", entry.Name),
			observability.String("target", target),
			observability.Error(err),
		)
		return ServiceStatus{Status: StatusUnhealthy, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.metrics.RecordProbe(entry.Name, "unhealthy", time.Since(start))
		return ServiceStatus{Status: StatusUnhealthy, StatusCode: resp.StatusCode}
	}

	a.metrics.RecordProbe(entry.Name, "healthy", time.Since(start))
	return ServiceStatus{Status: StatusHealthy}
}

// probeURL joins the service base URL with its health path.
func probeURL(entry registry.Entry) string {
	base := strings.TrimRight(entry.BaseURL.String(), "/")
	path := entry.HealthPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s%s", base, path)
}
