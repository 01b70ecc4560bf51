package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "dsrsales/internal/core/context"
	"dsrsales/internal/core/security"
)

// RequirePolicy rejects the request unless the access policy allows op for
// the authenticated user.
func RequirePolicy(policy *security.AccessPolicy, op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Check(appctx.GetUser(c.Request.Context()), op); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
