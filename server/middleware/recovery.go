package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/logger"
)

// Recovery turns a handler panic into a 500 with the same envelope the auth
// endpoints use, logging the panic value and stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.WithComponent("server")
	}
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Error("handler panicked", logger.Fields(
				logger.FieldError, fmt.Sprint(rec),
				logger.FieldPath, c.Request.URL.Path,
				logger.FieldRequestID, c.GetString(RequestIDKey),
				"stack", string(debug.Stack()),
			))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		}()
		c.Next()
	}
}
