package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andes-edu/colegio-admin-api/internal/service"
)

// Metrics captures per-request timing on the route template, falling back to
// the raw path for unmatched requests.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
