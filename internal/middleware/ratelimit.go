package middleware

import (
	"strconv"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RateLimit allows limit requests per window for each route and client IP.
// Redis failures let the request through.
func RateLimit(cacheSvc caching.CacheService, logger *zap.Logger, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Method + ":" + c.Path() + ":" + c.RealIP()
			limited, err := cacheSvc.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.String("path", c.Path()), zap.Error(err))
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return common.SendTooManyRequestsError(c)
			}
			return next(c)
		}
	}
}
