package handlers

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ContactHandlers struct {
	contactSvc services.ContactService
	logger     *zap.Logger
}

func NewContactHandlers(contactSvc services.ContactService, logger *zap.Logger) *ContactHandlers {
	return &ContactHandlers{contactSvc: contactSvc, logger: logger}
}

// SubmitContact handles POST /contact
func (h *ContactHandlers) SubmitContact(c echo.Context) error {
	var contact models.Contact
	if ok, err := bindAndValidate(c, &contact); !ok {
		return err
	}
	if err := h.contactSvc.Submit(c.Request().Context(), &contact); err != nil {
		return respondError(c, h.logger, "submit contact message", "Contact", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"id":      contact.ID.String(),
		"message": "Thanks, we will get back to you shortly",
	})
}
