package handlers

import (
	"net/http"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AccountHandlers covers sign-up, confirmation, password reset and the staff user listing
type AccountHandlers struct {
	accountSvc services.AccountService
	logger     *zap.Logger
}

func NewAccountHandlers(accountSvc services.AccountService, logger *zap.Logger) *AccountHandlers {
	return &AccountHandlers{accountSvc: accountSvc, logger: logger}
}

// Register handles POST /accounts/register
func (h *AccountHandlers) Register(c echo.Context) error {
	var req services.RegisterInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.accountSvc.Register(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, h.logger, "register account", "user", err)
	}
	h.logger.Info("account registered", zap.String("user_id", user.ID.String()))
	return c.JSON(http.StatusCreated, user)
}

type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Confirm handles POST /accounts/confirm
func (h *AccountHandlers) Confirm(c echo.Context) error {
	var req TokenRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.accountSvc.Confirm(c.Request().Context(), req.Token); err != nil {
		return respondError(c, h.logger, "confirm account", "token", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset handles POST /accounts/password-reset; the answer never reveals whether the email exists
func (h *AccountHandlers) RequestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.accountSvc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		h.logger.Error("password reset request failed", zap.Error(err))
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "If the account exists, a reset link has been sent"})
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// ConfirmPasswordReset handles POST /accounts/password-reset/confirm
func (h *AccountHandlers) ConfirmPasswordReset(c echo.Context) error {
	var req PasswordResetConfirmRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.accountSvc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return respondError(c, h.logger, "reset password", "token", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers handles GET /accounts (staff)
func (h *AccountHandlers) ListUsers(c echo.Context) error {
	limit, offset, err := common.ParseLimitOffset(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	ordering, err := common.ParseOrdering(c, "", "email", "-email", "date_joined", "-date_joined")
	if err != nil {
		return common.SendValidationError(c, "ordering", err.Error())
	}
	filter := &models.UserFilter{
		Search:   c.QueryParam("search"),
		Ordering: ordering,
		Limit:    limit,
		Offset:   offset,
	}

	users, err := h.accountSvc.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.logger, "list users", "user", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUser handles GET /accounts/:id (staff)
func (h *AccountHandlers) GetUser(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	user, err := h.accountSvc.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, "get user", "User", err)
	}
	return c.JSON(http.StatusOK, user)
}
