// Package gateway assembles the HTTP surface: middleware chain, system
// endpoints, and the proxy routes.
package gateway

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushub/gateway/internal/auth"
	"github.com/campushub/gateway/internal/config"
	"github.com/campushub/gateway/internal/health"
	"github.com/campushub/gateway/internal/middleware"
	"github.com/campushub/gateway/internal/observability"
	"github.com/campushub/gateway/internal/proxy"
	"github.com/campushub/gateway/internal/tenant"
	"github.com/campushub/gateway/internal/token"
)

// IssueTokenPermission guards the internal service-token endpoint.
const IssueTokenPermission = "gateway:issue-token"

// ginModeOnce ensures gin.SetMode is only called once.
var ginModeOnce sync.Once

// Deps are the collaborators the engine is assembled from.
type Deps struct {
	Config      *config.Config
	Logger      observability.Logger
	Gate        *auth.Gate
	Codec       *token.Codec
	Forwarder   *proxy.Forwarder
	Health      *health.Handler
	HTTPMetrics *middleware.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	Tracer      *observability.Tracer
	PromGatherer prometheus.Gatherer
	Version     string
}

// NewEngine builds the gin engine with the full route table.
func NewEngine(deps Deps) *gin.Engine {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()

	engine.Use(middleware.Recovery(deps.Logger))
	engine.Use(middleware.RequestID())
	if deps.Tracer != nil {
		engine.Use(middleware.Tracing(deps.Tracer))
	}
	engine.Use(middleware.Logging(deps.Logger))
	if deps.HTTPMetrics != nil {
		engine.Use(deps.HTTPMetrics.Middleware())
	}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "School Platform API Gateway",
			"version": deps.Version,
			"status":  "ok",
		})
	})

	engine.GET("/health", deps.Health.Liveness)
	engine.GET("/services/health", deps.Health.ServicesHealth)

	if deps.Config.Metrics.Enabled && deps.PromGatherer != nil {
		engine.GET(deps.Config.Metrics.Path, gin.WrapH(
			promhttp.HandlerFor(deps.PromGatherer, promhttp.HandlerOpts{}),
		))
	}

	authMiddleware := auth.Middleware(deps.Gate, auth.MiddlewareConfig{
		RoutePermissions: deps.Config.Auth.RoutePermissions,
	})

	api := engine.Group("/api/v1")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	api.Use(tenant.Middleware(deps.Config.Auth.TenantRequired))
	api.Use(authMiddleware)

	proxyMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodPatch,
	}
	for _, method := range proxyMethods {
		api.Handle(method, "/:service", deps.Forwarder.Handle)
		api.Handle(method, "/:service/*path", deps.Forwarder.Handle)
	}

	internal := engine.Group("/internal")
	internal.Use(auth.Middleware(deps.Gate, auth.MiddlewareConfig{
		RequiredPermissions: []string{IssueTokenPermission},
	}))
	internal.POST("/service-token", issueServiceToken(deps.Codec))

	return engine
}
