package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/apperror"
	appctx "dsrsales/internal/core/context"
	"dsrsales/pkg/logger"
)

// Recovery turns a handler panic into an internal error for ErrorHandler.
// The stack goes to the log only; the client sees the request id.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "handler panicked",
				"route", c.FullPath(),
				"method", c.Request.Method,
				"user_id", c.GetString(KeyUserID),
				"panic", r,
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), r))
			_ = c.Error(appErr.WithDetail("request_id", appctx.GetRequestID(ctx)))
			c.Abort()
		}()
		c.Next()
	}
}
