package middleware

import (
	"context"

	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig selects whether requests carry profiling labels
type ProfilingConfig struct {
	Enabled bool
}

// Profiling labels the CPU samples of each request with its matched route
// pattern and method. Unmatched paths stay unlabelled.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := telemetry.HTTPRequestLabels(route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
