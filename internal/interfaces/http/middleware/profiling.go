package middleware

import (
	"context"

	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingLabels tags CPU samples taken while a request is handled with its
// route pattern, method and tenant, so Pyroscope can split profiles per
// endpoint. It must run after the JWT middleware. Labels are free when no
// profiler is running.
func ProfilingLabels() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := telemetry.HTTPRequestLabels(route, c.Request.Method, c.GetString(JWTTenantIDKey))

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
