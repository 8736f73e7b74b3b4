package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler serves the gateway's own liveness and the aggregate backend
// health endpoint.
type Handler struct {
	aggregator *Aggregator
	version    string
	startTime  time.Time
}

// NewHandler creates a new health handler.
func NewHandler(aggregator *Aggregator, version string) *Handler {
	return &Handler{
		aggregator: aggregator,
		version:    version,
		startTime:  time.Now(),
	}
}

// Liveness answers the gateway's own health, independent of backend health.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  StatusHealthy,
		"version": h.version,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// ServicesHealth probes every registered backend and returns the full
// per-service map. Health-checking itself never fails the request: the
// status is 200 even when every backend is down.
func (h *Handler) ServicesHealth(c *gin.Context) {
	statuses := h.aggregator.Check(c.Request.Context())
	c.JSON(http.StatusOK, statuses)
}
