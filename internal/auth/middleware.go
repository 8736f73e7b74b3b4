package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/gateway/internal/token"
)

// principalGinKey stores the principal in the gin context.
const principalGinKey = "auth_principal"

// MiddlewareConfig configures the authentication middleware.
type MiddlewareConfig struct {
	// RequiredPermissions apply to every request through the middleware.
	RequiredPermissions []string

	// RoutePermissions maps the route's service path parameter to extra
	// required permissions for that service.
	RoutePermissions map[string][]string
}

// Middleware returns a gin middleware that authenticates the request and
// enforces the route's permission requirements. Failures abort the request
// before any downstream call is attempted.
func Middleware(gate *Gate, cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := gate.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": authFailureDetail(err)})
			return
		}

		required := cfg.RequiredPermissions
		if extra, ok := cfg.RoutePermissions[c.Param("service")]; ok {
			required = append(append([]string{}, required...), extra...)
		}

		if err := gate.Authorize(principal, required); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
			return
		}

		c.Set(principalGinKey, principal)
		c.Request = c.Request.WithContext(ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// authFailureDetail maps an authentication error to the client-facing
// message. Verification internals are logged, not returned.
func authFailureDetail(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "Authentication required"
	case errors.Is(err, token.ErrServiceIdentityMismatch):
		return "Service identity mismatch"
	default:
		return "Invalid or expired token"
	}
}

// PrincipalFromGin extracts the principal placed by the middleware.
func PrincipalFromGin(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalGinKey)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*Principal)
	return principal, ok && principal != nil
}
