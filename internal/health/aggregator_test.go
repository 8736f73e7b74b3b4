package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/gateway/internal/config"
	"github.com/campushub/gateway/internal/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRegistry(t *testing.T, services ...config.ServiceConfig) *registry.Registry {
	t.Helper()

	reg, err := registry.New(services)
	require.NoError(t, err)
	return reg
}

func healthBackend(t *testing.T, status int, delay time.Duration) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheck_MixedResults(t *testing.T) {
	t.Parallel()

	healthy := healthBackend(t, http.StatusOK, 0)
	degraded := healthBackend(t, http.StatusInternalServerError, 0)
	down := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	down.Close()

	reg := newTestRegistry(t,
		config.ServiceConfig{Name: "students", URL: healthy.URL},
		config.ServiceConfig{Name: "fees", URL: degraded.URL},
		config.ServiceConfig{Name: "library", URL: down.URL},
	)

	statuses := NewAggregator(reg).Check(context.Background())
	require.Len(t, statuses, 3)

	assert.Equal(t, ServiceStatus{Status: StatusHealthy}, statuses["students"])

	assert.Equal(t, StatusUnhealthy, statuses["fees"].Status)
	assert.Equal(t, http.StatusInternalServerError, statuses["fees"].StatusCode)
	assert.Empty(t, statuses["fees"].Error)

	assert.Equal(t, StatusUnhealthy, statuses["library"].Status)
	assert.Zero(t, statuses["library"].StatusCode)
	assert.NotEmpty(t, statuses["library"].Error)
}

func TestCheck_Empty(t *testing.T) {
	t.Parallel()

	statuses := NewAggregator(newTestRegistry(t)).Check(context.Background())
	assert.Empty(t, statuses)
}

func TestCheck_ProbesRunConcurrently(t *testing.T) {
	t.Parallel()

	// Four backends each taking ~150ms must complete in roughly one probe's
	// latency, not four.
	const delay = 150 * time.Millisecond

	services := make([]config.ServiceConfig, 0, 4)
	for _, name := range []string{"students", "fees", "library", "timetable"} {
		backend := healthBackend(t, http.StatusOK, delay)
		services = append(services, config.ServiceConfig{Name: name, URL: backend.URL})
	}

	aggregator := NewAggregator(newTestRegistry(t, services...))

	start := time.Now()
	statuses := aggregator.Check(context.Background())
	elapsed := time.Since(start)

	require.Len(t, statuses, 4)
	for name, status := range statuses {
		assert.Equal(t, StatusHealthy, status.Status, name)
	}
	assert.Less(t, elapsed, 3*delay, "probes must fan out, not run sequentially")
}

func TestCheck_ProbeTimeout(t *testing.T) {
	t.Parallel()

	slow := healthBackend(t, http.StatusOK, time.Second)
	fast := healthBackend(t, http.StatusOK, 0)

	reg := newTestRegistry(t,
		config.ServiceConfig{Name: "slow", URL: slow.URL},
		config.ServiceConfig{Name: "fast", URL: fast.URL},
	)

	aggregator := NewAggregator(reg, WithProbeTimeout(50*time.Millisecond))

	statuses := aggregator.Check(context.Background())
	require.Len(t, statuses, 2)

	// The timed-out probe does not take the healthy one down with it.
	assert.Equal(t, StatusHealthy, statuses["fast"].Status)
	assert.Equal(t, StatusUnhealthy, statuses["slow"].Status)
	assert.NotEmpty(t, statuses["slow"].Error)
}

func TestCheck_CustomHealthPath(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)

	reg := newTestRegistry(t, config.ServiceConfig{
		Name:       "students",
		URL:        backend.URL,
		HealthPath: "/internal/healthz",
	})

	statuses := NewAggregator(reg).Check(context.Background())
	assert.Equal(t, StatusHealthy, statuses["students"].Status)
}

func TestServicesHealth_Always200(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	down.Close()

	reg := newTestRegistry(t, config.ServiceConfig{Name: "students", URL: down.URL})
	handler := NewHandler(NewAggregator(reg), "test")

	engine := gin.New()
	engine.GET("/services/health", handler.ServicesHealth)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/services/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var statuses map[string]ServiceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	assert.Equal(t, StatusUnhealthy, statuses["students"].Status)
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	handler := NewHandler(NewAggregator(newTestRegistry(t)), "1.2.3")

	engine := gin.New()
	engine.GET("/health", handler.Liveness)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.NotEmpty(t, body["uptime"])
}
