package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"studyvault-backend/internal/telemetry"
)

// MetricsMiddleware records request count and duration. A nil metrics value
// (exporter init failed) turns it into a pass-through.
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		statusStr := "success"
		if c.Writer.Status() >= 400 {
			statusStr = "error"
		}

		metrics.RecordRequest(
			c.Request.Method,
			c.Request.URL.Path,
			statusStr,
			time.Since(start).Seconds(),
		)
	}
}
