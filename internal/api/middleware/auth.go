package middleware

import (
	"net/http"
	"strings"

	"example.com/bakehouse/services/orders/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PrincipalHeader carries the identity asserted by the auth proxy in front
// of this service.
const PrincipalHeader = "X-Auth-Principal"

// Authenticate enforces the allow-list. A missing principal is a 401; a
// principal outside the list is a 403 the client must treat as a sign-out.
func Authenticate(policy *auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := strings.TrimSpace(c.GetHeader(PrincipalHeader))
		if principal == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		if !policy.Allow(principal) {
			log.Warn().Str("principal", principal).Msg("Principal not in allow-list")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "account is not authorized for this service",
				"signed_out": true,
			})
			return
		}

		c.Set("principal", principal)
		c.Next()
	}
}
