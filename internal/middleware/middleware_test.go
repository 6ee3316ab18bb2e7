package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	args := m.Called(ctx, user)
	resp, _ := args.Get(0).(*models.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	resp, _ := args.Get(0).(*models.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*services.TokenClaims)
	return claims, args.Error(1)
}

func (m *mockAuthService) RevokeToken(ctx context.Context, claims *services.TokenClaims, refreshToken *string) error {
	return m.Called(ctx, claims, refreshToken).Error(0)
}

func (m *mockAuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

type rateLimitCache struct {
	caching.CacheService
	limited bool
	err     error
	keys    []string
}

func (r *rateLimitCache) IsRateLimited(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	r.keys = append(r.keys, key)
	return r.limited, r.err
}

// whoami echoes what the auth middleware put into the request context
func whoami(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return c.String(http.StatusOK, "anonymous")
	}
	if common.IsStaffFromContext(ctx) {
		return c.String(http.StatusOK, "staff:"+userID.String())
	}
	return c.String(http.StatusOK, userID.String())
}

func serve(e *echo.Echo, method, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func validClaims(userID uuid.UUID, staff bool) *services.TokenClaims {
	return &services.TokenClaims{
		UserID:           userID.String(),
		IsStaff:          staff,
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
	}
}

func TestJWTMiddleware_PropagatesClaims(t *testing.T) {
	auth := new(mockAuthService)
	userID := uuid.New()
	auth.On("ValidateToken", mock.Anything, "good").Return(validClaims(userID, false), nil)

	e := echo.New()
	e.GET("/me", whoami, JWTMiddleware(auth))

	rec := serve(e, http.MethodGet, "/me", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())
}

func TestJWTMiddleware_RejectsMissingAndInvalid(t *testing.T) {
	auth := new(mockAuthService)
	auth.On("ValidateToken", mock.Anything, "revoked").Return(nil, services.ErrInvalidToken)

	e := echo.New()
	e.GET("/me", whoami, JWTMiddleware(auth))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "revoked").Code)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	auth := new(mockAuthService)
	userID := uuid.New()
	auth.On("ValidateToken", mock.Anything, "good").Return(validClaims(userID, true), nil)
	auth.On("ValidateToken", mock.Anything, "bad").Return(nil, services.ErrInvalidToken)

	e := echo.New()
	e.GET("/cart", whoami, OptionalJWTMiddleware(auth))

	rec := serve(e, http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(e, http.MethodGet, "/cart", "good")
	assert.Equal(t, "staff:"+userID.String(), rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/cart", "bad").Code)
}

func TestOptionalJWTMiddleware_InvalidTokenSkipsHandler(t *testing.T) {
	auth := new(mockAuthService)
	auth.On("ValidateToken", mock.Anything, "expired").Return(nil, services.ErrInvalidToken)

	runs := 0
	e := echo.New()
	e.POST("/cart/items", func(c echo.Context) error {
		runs++
		return c.String(http.StatusOK, "added")
	}, OptionalJWTMiddleware(auth))

	rec := serve(e, http.MethodPost, "/cart/items", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, runs)
	assert.NotContains(t, rec.Body.String(), "added")
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")

	rec = serve(e, http.MethodPost, "/cart/items", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runs)
}

func TestRequireStaff(t *testing.T) {
	auth := new(mockAuthService)
	auth.On("ValidateToken", mock.Anything, "customer").Return(validClaims(uuid.New(), false), nil)
	auth.On("ValidateToken", mock.Anything, "staff").Return(validClaims(uuid.New(), true), nil)

	e := echo.New()
	e.GET("/stats", whoami, JWTMiddleware(auth), RequireStaff())

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/stats", "customer").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/stats", "staff").Code)
}

func TestCartSession_IssuesCookieOnce(t *testing.T) {
	e := echo.New()
	e.GET("/cart", func(c echo.Context) error {
		return c.String(http.StatusOK, CartSessionID(c))
	}, CartSession(time.Hour, false))

	rec := serve(e, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CartSessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, cookies[0].Value, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionCookie, Value: "existing"})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "existing", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestRateLimit(t *testing.T) {
	cache := &rateLimitCache{limited: true}
	e := echo.New()
	e.POST("/token", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		RateLimit(cache, zap.NewNop(), 5, time.Minute))

	rec := serve(e, http.MethodPost, "/token", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	require.Len(t, cache.keys, 1)
	assert.Contains(t, cache.keys[0], "POST:/token:")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	cache := &rateLimitCache{limited: true, err: errors.New("redis down")}
	e := echo.New()
	e.POST("/contact", func(c echo.Context) error { return c.NoContent(http.StatusAccepted) },
		RateLimit(cache, zap.NewNop(), 5, time.Minute))

	assert.Equal(t, http.StatusAccepted, serve(e, http.MethodPost, "/contact", "").Code)
}

func TestVersionHeader(t *testing.T) {
	e := echo.New()
	vm := NewVersionMiddleware()
	v1 := vm.VersionGroup(e, vm.CurrentVersion())
	v1.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, http.MethodGet, "/api/v1/ping", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "active", rec.Header().Get("X-API-Status"))
}
