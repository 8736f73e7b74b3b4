// Package tenant extracts the tenant identifier for tenant-scoped routes.
// The gateway only guarantees that a tenant identifier accompanies the
// request; validating that the tenant exists is delegated downstream.
package tenant

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// Header is the tenant identifier header, checked first.
	Header = "X-Tenant-ID"

	// QueryParam is the fallback query parameter.
	QueryParam = "tenant_id"
)

// Resolve extracts the tenant identifier from a request: header first, then
// query parameter. Returns the empty string when neither is present.
func Resolve(r *http.Request) string {
	if id := r.Header.Get(Header); id != "" {
		return id
	}
	return r.URL.Query().Get(QueryParam)
}

// tenantContextKey is the context key for tenant identifiers.
type tenantContextKey struct{}

// ContextWithTenant adds a tenant identifier to the context.
func ContextWithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// FromContext extracts the tenant identifier from the context.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantContextKey{}).(string)
	return id, ok && id != ""
}

// Middleware returns a gin middleware that resolves the tenant identifier
// and fails closed with 400 when it is absent.
func Middleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Resolve(c.Request)
		if id == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Tenant ID required"})
				return
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(ContextWithTenant(c.Request.Context(), id))
		c.Next()
	}
}
