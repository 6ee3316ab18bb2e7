package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/common"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps service errors onto the standard error envelope
func respondError(c echo.Context, logger *zap.Logger, operation, resource string, err error) error {
	var stockErr *common.InsufficientStockError
	var variantErr *common.VariantNotFoundError

	switch {
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusBadRequest, common.CreateErrorResponse("INSUFFICIENT_STOCK", stockErr.Error(), map[string]string{
			"variant_id": stockErr.VariantID.String(),
			"requested":  strconv.Itoa(stockErr.Requested),
			"available":  strconv.Itoa(stockErr.Available),
		}))
	case errors.As(err, &variantErr):
		return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", variantErr.Error(), map[string]string{
			"variant_id": variantErr.VariantID.String(),
		}))
	case errors.Is(err, common.ErrNotFound):
		return common.SendNotFoundError(c, resource)
	case errors.Is(err, common.ErrConflict):
		return common.SendConflictError(c, err.Error())
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, services.ErrCategoryCycle):
		return common.SendClientError(c, err.Error())
	case errors.Is(err, services.ErrInvalidSignature):
		return common.SendClientError(c, "Invalid webhook signature")
	case errors.Is(err, common.ErrForbidden):
		return common.SendForbiddenError(c)
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAccountInactive):
		return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", err.Error(), nil))
	}

	logger.Error("request failed",
		zap.String("operation", operation),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return common.SendServerError(c, common.SecureErrorMessage(operation, err).Error())
}

// pathUUID parses a path parameter; ok is false once the 400 has been written
func pathUUID(c echo.Context, name string) (uuid.UUID, bool, error) {
	id, err := common.ValidateUUID(c.Param(name), name)
	if err != nil {
		return uuid.Nil, false, common.SendValidationError(c, name, err.Error())
	}
	return id, true, nil
}

// currentUser returns the authenticated caller; ok is false once the 401 has been written
func currentUser(c echo.Context) (uuid.UUID, bool, error) {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, false, common.SendUnauthorizedError(c)
	}
	return userID, true, nil
}

func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, common.SendClientError(c, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return false, common.SendValidationErrors(c, common.ValidationDetails(err))
	}
	return true, nil
}
