package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/logger"
)

// SlowRequest marks requests worth flagging in the log.
const SlowRequest = 500 * time.Millisecond

// RequestLogger logs each request once it completes: 5xx at error, 4xx at
// warn and everything else at debug. The query string is never logged since
// the OAuth callback carries the token in it.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.WithComponent("server")
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := logger.Fields(
			"method", c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldStatus, status,
			"latency", latency.String(),
			"client", c.ClientIP(),
		)
		if id := c.GetString(RequestIDKey); id != "" {
			fields[logger.FieldRequestID] = id
		}
		if latency > SlowRequest {
			fields["slow"] = true
		}

		emit := log.Debug
		switch {
		case status >= 500:
			emit = log.Error
		case status >= 400:
			emit = log.Warn
		}
		emit("request completed", fields)
	}
}
