package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is honoured on requests and echoed on responses.
	RequestIDHeader = "X-Request-Id"
	// RequestIDKey holds the request ID in the gin context.
	RequestIDKey = "request_id"
)

// maxRequestIDLen bounds caller-supplied IDs before they reach the log.
const maxRequestIDLen = 128

// RequestID tags every request with an ID, keeping a caller-supplied one
// when it is reasonably sized.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}
