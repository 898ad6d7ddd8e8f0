package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storeroom/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// Health checks are skipped to keep liveness polling out of the logs.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if strings.HasPrefix(path, "/health") {
			return
		}

		latency := time.Since(start)
		status := c.Writer.Status()

		log.WithContext(c.Request.Context()).Infow("http request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
