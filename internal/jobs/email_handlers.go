package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/pkg/mailer"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EmailHandlers renders and sends the email tasks
type EmailHandlers struct {
	mailer mailer.Mailer
	logger *zap.Logger
}

func NewEmailHandlers(m mailer.Mailer, logger *zap.Logger) *EmailHandlers {
	return &EmailHandlers{mailer: m, logger: logger}
}

// Register binds every email task type on the worker mux
func (h *EmailHandlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailConfirmation, h.HandleConfirmation)
	mux.HandleFunc(TypeEmailPasswordReset, h.HandlePasswordReset)
	mux.HandleFunc(TypeEmailContact, h.HandleContact)
	mux.HandleFunc(TypeEmailOrderConfirmation, h.HandleOrderConfirmation)
	mux.HandleFunc(TypeEmailLowStock, h.HandleLowStock)
}

func decodePayload(t *asynq.Task, dest interface{}) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

func greeting(firstName string) string {
	if firstName == "" {
		return "Hi,"
	}
	return "Hi " + firstName + ","
}

func (h *EmailHandlers) send(ctx context.Context, taskType string, msg mailer.Message) error {
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("email task failed", zap.String("task", taskType), zap.String("to", msg.To), zap.Error(err))
		return err
	}
	h.logger.Info("email sent", zap.String("task", taskType), zap.String("to", msg.To))
	return nil
}

func (h *EmailHandlers) HandleConfirmation(ctx context.Context, t *asynq.Task) error {
	var p AccountEmailPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	body := fmt.Sprintf("%s\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link is valid for 72 hours.\n",
		greeting(p.FirstName), p.Link)
	return h.send(ctx, t.Type(), mailer.Message{To: p.Email, Subject: "Confirm your account", Body: body})
}

func (h *EmailHandlers) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var p AccountEmailPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	body := fmt.Sprintf("%s\n\nWe received a request to reset your password. Use the link below to choose a new one:\n\n%s\n\nThe link expires in one hour. If you did not ask for this, ignore this email.\n",
		greeting(p.FirstName), p.Link)
	return h.send(ctx, t.Type(), mailer.Message{To: p.Email, Subject: "Reset your password", Body: body})
}

func (h *EmailHandlers) HandleContact(ctx context.Context, t *asynq.Task) error {
	var p ContactEmailPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", p.Name, p.Email, p.Message)
	return h.send(ctx, t.Type(), mailer.Message{To: p.To, ReplyTo: p.Email, Subject: "[Contact] " + p.Subject, Body: body})
}

func (h *EmailHandlers) HandleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	var p OrderConfirmationPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	body := fmt.Sprintf("Thank you for your order.\n\nOrder: %s\nTotal paid: %s\n\nWe will let you know when it ships.\n",
		p.OrderID, p.Total.StringFixed(2))
	return h.send(ctx, t.Type(), mailer.Message{To: p.Email, Subject: "Order confirmed", Body: body})
}

func (h *EmailHandlers) HandleLowStock(ctx context.Context, t *asynq.Task) error {
	var p LowStockPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d variant(s) are below the stock threshold of %d:\n\n", len(p.Variants), p.Threshold)
	for _, v := range p.Variants {
		fmt.Fprintf(&b, "- %s (%s): %d left\n", v.DisplayName, v.SKU, v.Stock)
	}
	return h.send(ctx, t.Type(), mailer.Message{To: p.To, Subject: "Low stock alert", Body: b.String()})
}
