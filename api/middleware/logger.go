package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for access logging. Server errors are also
// written to the error category.
func Logger(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		logAdapter.General().Info("HTTP request", fields...)

		if statusCode >= 500 {
			logAdapter.Error().Error("HTTP error response", fields...)
		}
	}
}
