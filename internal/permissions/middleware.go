package permissions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wnusair/miami-MTI/pkg/auth"
)

// Require returns middleware that denies the request unless the
// authenticated role holds the capability. Denials are explicit 403s, never
// silent downgrades.
func (g *Gate) Require(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(auth.CtxRole)
		if role == "" || !g.Allow(c.Request.Context(), role, capability) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}
