package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/gateway/internal/observability"
)

// Recovery returns a middleware that recovers from handler panics and
// answers 500 without taking the process down.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panic",
					observability.String("method", c.Request.Method),
					observability.String("path", c.Request.URL.Path),
					observability.Any("panic", rec),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			}
		}()

		c.Next()
	}
}
