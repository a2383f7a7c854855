package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
)

// AdminOnly requires an authenticated token carrying the admin role. It
// must run after Authenticate, which populates the role from the claims.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != "admin" {
			response.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
