package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/gateway/internal/auth"
	"github.com/campushub/gateway/internal/token"
)

// issueTokenRequest is the body of POST /internal/service-token.
type issueTokenRequest struct {
	Service     string   `json:"service" binding:"required"`
	Permissions []string `json:"permissions"`
	TTLSeconds  int64    `json:"ttl_seconds"`
}

// issueServiceToken mints a service-to-service token. Only a service
// principal holding the issue permission reaches this handler.
func issueServiceToken(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFromGin(c)
		if !ok || principal.Type != auth.PrincipalTypeService {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Service principal required"})
			return
		}

		var req issueTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
			return
		}

		ttl := time.Duration(req.TTLSeconds) * time.Second
		signed, err := codec.IssueServiceToken(req.Service, req.Permissions, ttl)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		if ttl == 0 {
			ttl = codec.DefaultTTL()
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      signed,
			"expires_in": int64(ttl.Seconds()),
		})
	}
}
