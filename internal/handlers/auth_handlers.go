package handlers

import (
	"net/http"

	"storefront/internal/common"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandlers issues, refreshes and revokes bearer tokens and serves the caller's profile
type AuthHandlers struct {
	accountSvc services.AccountService
	authSvc    services.AuthService
	cartSvc    services.CartService
	logger     *zap.Logger
}

func NewAuthHandlers(accountSvc services.AccountService, authSvc services.AuthService, cartSvc services.CartService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		accountSvc: accountSvc,
		authSvc:    authSvc,
		cartSvc:    cartSvc,
		logger:     logger,
	}
}

type ObtainTokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ObtainToken handles POST /token
func (h *AuthHandlers) ObtainToken(c echo.Context) error {
	var req ObtainTokenRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.accountSvc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, "authenticate", "user", err)
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, user)
	if err != nil {
		return respondError(c, h.logger, "issue token", "token", err)
	}

	if sessionID := middleware.CartSessionID(c); sessionID != "" {
		if err := h.cartSvc.AttachToUser(ctx, sessionID, user.ID); err != nil {
			h.logger.Warn("failed to attach session cart", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	h.logger.Info("token issued", zap.String("user_id", user.ID.String()), zap.String("jti", tokens.TokenID))
	return c.JSON(http.StatusOK, tokens)
}

type RefreshTokenRequest struct {
	GrantType    string `json:"grant_type" validate:"required,eq=refresh_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /token/refresh
func (h *AuthHandlers) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	tokens, err := h.authSvc.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, h.logger, "refresh token", "token", err)
	}
	return c.JSON(http.StatusOK, tokens)
}

type RevokeTokenRequest struct {
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// RevokeToken handles POST /token/revoke
func (h *AuthHandlers) RevokeToken(c echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req RevokeTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.authSvc.RevokeToken(c.Request().Context(), claims, req.RefreshToken); err != nil {
		return respondError(c, h.logger, "revoke token", "token", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /me
func (h *AuthHandlers) Me(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	user, err := h.accountSvc.GetUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, "load profile", "user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe handles PATCH /me
func (h *AuthHandlers) UpdateMe(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	var req models.ProfileUpdate
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.accountSvc.UpdateProfile(c.Request().Context(), userID, &req)
	if err != nil {
		return respondError(c, h.logger, "update profile", "user", err)
	}
	return c.JSON(http.StatusOK, user)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePassword handles POST /me/password
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	var req ChangePasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.accountSvc.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, h.logger, "change password", "user", err)
	}
	return c.NoContent(http.StatusNoContent)
}
