package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/ratelimit"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

// RateLimit applies the advisory per-tenant ingestion limit. Tenant-less
// callers are counted under a shared bucket. A limiter failure fails open.
func RateLimit(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			tenantID := c.Request().Header.Get(HeaderTenantID)
			if tenantID == "" {
				if identity := IdentityFrom(c); identity != nil {
					tenantID = identity.TenantIDString()
				}
			}
			if tenantID == "" {
				tenantID = "no-tenant"
			}

			allowed, err := limiter.Allow(c.Request().Context(), tenantID)
			if err != nil {
				log.Warn("rate limiter unavailable, failing open", zap.Error(err))
				return next(c)
			}
			if !allowed {
				prometheus.RecordRateLimited(tenantID)
				log.Warn("tenant rate limit exceeded", zap.String("tenant_id", tenantID))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"errors":    []echo.Map{{"message": "rate limit exceeded, retry later"}},
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
			}

			return next(c)
		}
	}
}
