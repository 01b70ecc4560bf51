// Package middleware provides HTTP middleware for the DSR sales API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/security"
)

// UserContext copies the authenticated user ID into the request context so
// domain services can resolve the actor via security.ActorID.
//
// Must run after Auth:
//
//	protected.Use(middleware.Auth(cfg.JWTValidator))
//	protected.Use(middleware.UserContext())
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetString(KeyUserID); uid != "" {
			ctx := security.WithUserID(c.Request.Context(), uid)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
