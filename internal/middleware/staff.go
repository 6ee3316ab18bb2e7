package middleware

import (
	"storefront/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireStaff must run after JWTMiddleware
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := common.GetUserIDFromContext(ctx); !ok {
				return common.SendUnauthorizedError(c)
			}
			if !common.IsStaffFromContext(ctx) {
				return common.SendForbiddenError(c)
			}
			return next(c)
		}
	}
}
