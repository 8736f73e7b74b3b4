// Package proxy forwards caller requests to the resolved backend service
// and relays the response. There are no retries at this layer: a single
// failed attempt is terminal for that request.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/gateway/internal/observability"
	"github.com/campushub/gateway/internal/registry"
)

// Default outbound timeouts.
const (
	// DefaultRequestTimeout bounds sub-resource forwards.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultRootTimeout bounds root-call GET discovery probes.
	DefaultRootTimeout = 5 * time.Second
)

// discoveryHints lists plausible sub-paths returned in the root-call
// discovery payload. The list is static and fee-flavored regardless of which
// service was queried.
// TODO: derive hints per service once backends expose route metadata.
var discoveryHints = []string{
	"/api/v1/fees/structures",
	"/api/v1/fees/payments",
	"/api/v1/fees/invoices",
	"/api/v1/fees/reports",
}

// methodsWithBody are the methods whose request body is forwarded verbatim.
var methodsWithBody = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Forwarder proxies requests to backend services.
type Forwarder struct {
	registry       *registry.Registry
	client         *http.Client
	requestTimeout time.Duration
	rootTimeout    time.Duration
	logger         observability.Logger
	metrics        *Metrics
}

// ForwarderOption is a functional option for configuring the forwarder.
type ForwarderOption func(*Forwarder)

// WithForwarderLogger sets the logger for the forwarder.
func WithForwarderLogger(logger observability.Logger) ForwarderOption {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithForwarderMetrics sets the metrics for the forwarder.
func WithForwarderMetrics(metrics *Metrics) ForwarderOption {
	return func(f *Forwarder) {
		f.metrics = metrics
	}
}

// WithHTTPClient sets the outbound HTTP client.
func WithHTTPClient(client *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		f.client = client
	}
}

// WithRequestTimeout sets the sub-resource forward timeout.
func WithRequestTimeout(timeout time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		f.requestTimeout = timeout
	}
}

// WithRootTimeout sets the root-call GET timeout.
func WithRootTimeout(timeout time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		f.rootTimeout = timeout
	}
}

// NewForwarder creates a new forwarder over the given registry.
func NewForwarder(reg *registry.Registry, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		registry:       reg,
		client:         &http.Client{},
		requestTimeout: DefaultRequestTimeout,
		rootTimeout:    DefaultRootTimeout,
		logger:         observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Handle is the gin handler for /api/v1/:service and /api/v1/:service/*path.
func (f *Forwarder) Handle(c *gin.Context) {
	service := c.Param("service")
	subPath := strings.Trim(c.Param("path"), "/")

	entry, err := f.registry.Resolve(service)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Service '%s' not found", service)})
		return
	}

	if subPath == "" {
		f.handleRoot(c, entry)
		return
	}

	f.forward(c, entry, subPath, f.requestTimeout, false)
}

// handleRoot handles root calls (/api/v1/{service} with no sub-path).
// Non-GET methods follow the normal forwarding contract against the
// service's trailing-slash root. A GET probes the backend briefly and, when
// the backend answers anything but 200, degrades to a discovery payload
// instead of propagating the backend's status.
func (f *Forwarder) handleRoot(c *gin.Context, entry registry.Entry) {
	if c.Request.Method != http.MethodGet {
		f.forward(c, entry, "", f.requestTimeout, false)
		return
	}

	f.forward(c, entry, "", f.rootTimeout, true)
}

// forward re-issues the inbound request against the backend and relays the
// response. When discover is set, a non-200 backend answer is replaced by
// the discovery payload.
func (f *Forwarder) forward(c *gin.Context, entry registry.Entry, subPath string, timeout time.Duration, discover bool) {
	service := entry.Name
	start := time.Now()

	outReq, err := f.buildRequest(c.Request, entry, subPath, timeout)
	if err != nil {
		f.logger.Error("failed to build outbound request",
			observability.String("service", service),
			observability.Error(err),
		)
		f.metrics.RecordError(service, "build_request")
		c.JSON(http.StatusServiceUnavailable, unavailableDetail(service))
		return
	}
	defer outReq.cancel()

	resp, err := f.client.Do(outReq.req)
	if err != nil {
		f.metrics.RecordError(service, classifyError(err))
		f.logger.Error("backend call failed",
			observability.String("service", service),
			observability.String("target", outReq.req.URL.String()),
			observability.Error(&UnavailableError{Service: service, Cause: err}),
		)
		c.JSON(http.StatusServiceUnavailable, unavailableDetail(service))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.metrics.RecordError(service, classifyError(err))
		f.logger.Error("failed to read backend response",
			observability.String("service", service),
			observability.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, unavailableDetail(service))
		return
	}

	f.metrics.RecordForward(service, c.Request.Method, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if discover && resp.StatusCode != http.StatusOK {
		f.writeDiscovery(c, service)
		return
	}

	f.relay(c, resp, body)
}

// outboundRequest pairs the request with its timeout cancel func.
type outboundRequest struct {
	req    *http.Request
	cancel context.CancelFunc
}

// buildRequest constructs the outbound request: target URL
// {base_url}/{service}/{path}, inbound headers minus Host, query parameters
// verbatim, and the raw body for methods that carry one. The body is fully
// read before forwarding begins.
func (f *Forwarder) buildRequest(in *http.Request, entry registry.Entry, subPath string, timeout time.Duration) (*outboundRequest, error) {
	target := strings.TrimRight(entry.BaseURL.String(), "/") + "/" + entry.Name + "/"
	if subPath != "" {
		target += subPath
	}
	if in.URL.RawQuery != "" {
		target += "?" + in.URL.RawQuery
	}

	var body io.Reader
	if methodsWithBody[in.Method] && in.Body != nil {
		raw, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(in.Context(), timeout)

	req, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}

	for key, values := range in.Header {
		if strings.EqualFold(key, "Host") {
			continue
		}
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	return &outboundRequest{req: req, cancel: cancel}, nil
}

// relay writes the backend's response to the caller: status code unchanged,
// headers minus Content-Length (recomputed after any re-encoding), and a
// JSON-decoded body when the backend declared JSON.
func (f *Forwarder) relay(c *gin.Context, resp *http.Response, body []byte) {
	contentType := resp.Header.Get("Content-Type")

	for key, values := range resp.Header {
		if strings.EqualFold(key, "Content-Length") || strings.EqualFold(key, "Content-Type") {
			continue
		}
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}

	if strings.HasPrefix(contentType, "application/json") && len(body) > 0 {
		var decoded interface{}
		if err := json.Unmarshal(body, &decoded); err == nil {
			c.JSON(resp.StatusCode, decoded)
			return
		}
	}

	c.Data(resp.StatusCode, contentType, body)
}

// writeDiscovery synthesizes the 200 "service is available" payload returned
// when a root GET finds the backend up but not answering 200 at its root.
func (f *Forwarder) writeDiscovery(c *gin.Context, service string) {
	c.JSON(http.StatusOK, gin.H{
		"service":   service,
		"status":    "available",
		"message":   fmt.Sprintf("Service '%s' is available", service),
		"endpoints": discoveryHints,
	})
}

// unavailableDetail is the uniform 503 body. Transport errors are never
// shown to the caller.
func unavailableDetail(service string) gin.H {
	return gin.H{"detail": fmt.Sprintf("Service '%s' is unavailable", service)}
}

// classifyError buckets a transport error for metrics.
func classifyError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "connection"
	}
}
