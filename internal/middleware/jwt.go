package middleware

import (
	"context"
	"errors"

	"storefront/internal/common"
	"storefront/internal/services"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const claimsContextKey = "user"

// JWTMiddleware rejects requests without a valid, unrevoked bearer token
func JWTMiddleware(authSvc services.AuthService) echo.MiddlewareFunc {
	return bearerAuth(authSvc, false)
}

// OptionalJWTMiddleware authenticates when a bearer token is present and lets anonymous requests through
func OptionalJWTMiddleware(authSvc services.AuthService) echo.MiddlewareFunc {
	return bearerAuth(authSvc, true)
}

func bearerAuth(authSvc services.AuthService, optional bool) echo.MiddlewareFunc {
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		ContextKey:             claimsContextKey,
		ContinueOnIgnoredError: optional,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return authSvc.ValidateToken(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if optional && errors.As(err, &missing) {
				return nil
			}
			if sendErr := common.SendUnauthorizedError(c); sendErr != nil {
				return sendErr
			}
			// non-nil stops echo-jwt from calling next when ContinueOnIgnoredError is set
			return echo.ErrUnauthorized
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(propagateClaims(next))
	}
}

// propagateClaims copies the verified claims into the request context
func propagateClaims(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(claimsContextKey).(*services.TokenClaims)
		if !ok {
			return next(c)
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return common.SendUnauthorizedError(c)
		}

		ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
		ctx = context.WithValue(ctx, common.IsStaffKey, claims.IsStaff)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ClaimsFromContext returns the verified token claims set by JWTMiddleware
func ClaimsFromContext(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(claimsContextKey).(*services.TokenClaims)
	return claims, ok
}
