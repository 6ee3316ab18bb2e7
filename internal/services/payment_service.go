package services

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/common"
	"storefront/internal/events"
	"storefront/internal/jobs"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrOrderNotPending = fmt.Errorf("order is not awaiting payment: %w", common.ErrInvalidInput)

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, userID, orderID uuid.UUID) (*CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ListForOrder(ctx context.Context, userID uuid.UUID, isStaff bool, orderID uuid.UUID) ([]*models.Payment, error)
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
	orderRepo   repositories.OrderRepository
	userRepo    repositories.UserRepository
	gateway     PaymentGateway
	queue       jobs.Enqueuer
	publisher   events.Publisher
	logger      *zap.Logger
	baseURL     string
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	gateway PaymentGateway,
	queue jobs.Enqueuer,
	publisher events.Publisher,
	logger *zap.Logger,
	publicBaseURL string,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		queue:       queue,
		publisher:   publisher,
		logger:      logger,
		baseURL:     strings.TrimRight(publicBaseURL, "/"),
	}
}

// CreateCheckoutSession opens a hosted checkout for the caller's pending order
func (s *paymentService) CreateCheckoutSession(ctx context.Context, userID, orderID uuid.UUID) (*CheckoutSession, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, common.ErrNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	successURL := fmt.Sprintf("%s/payments/success/%s", s.baseURL, order.ID)
	cancelURL := fmt.Sprintf("%s/payments/failed/%s", s.baseURL, order.ID)
	sess, err := s.gateway.CreateCheckoutSession(ctx, order, successURL, cancelURL)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Provider:      models.PaymentProviderStripe,
		Status:        models.PaymentStatusPending,
		Amount:        order.Total,
		TransactionID: sess.ID,
		Metadata:      map[string]interface{}{"checkout_url": sess.URL},
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sess.ID),
		zap.Int64("amount_cents", AmountInCents(order)),
	)
	return sess, nil
}

// HandleWebhook applies a verified provider event; replays re-apply the same update
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case StripeCheckoutCompleted, StripeCheckoutAsyncPaymentSuccess:
		payment, err := s.paymentRepo.MarkSucceeded(ctx, event.SessionID)
		if err != nil {
			return err
		}
		s.logger.Info("payment succeeded", zap.String("order_id", payment.OrderID.String()), zap.String("session_id", event.SessionID))
		s.publish(ctx, events.EventPaymentSucceeded, payment, "")
		s.queueConfirmation(ctx, payment)
	case StripeCheckoutExpired, StripeCheckoutAsyncPaymentFailed:
		payment, err := s.paymentRepo.MarkFailed(ctx, event.SessionID)
		if err != nil {
			return err
		}
		s.logger.Info("payment failed", zap.String("order_id", payment.OrderID.String()), zap.String("event_type", event.Type))
		s.publish(ctx, events.EventPaymentFailed, payment, event.Type)
	default:
		s.logger.Debug("ignoring webhook event", zap.String("event_type", event.Type), zap.String("event_id", event.ID))
	}
	return nil
}

func (s *paymentService) ListForOrder(ctx context.Context, userID uuid.UUID, isStaff bool, orderID uuid.UUID) ([]*models.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isStaff && (order.UserID == nil || *order.UserID != userID) {
		return nil, common.ErrNotFound
	}
	return s.paymentRepo.ListByOrder(ctx, orderID)
}

func (s *paymentService) queueConfirmation(ctx context.Context, payment *models.Payment) {
	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil || order.UserID == nil {
		s.logger.Warn("order confirmation skipped", zap.String("order_id", payment.OrderID.String()), zap.Error(err))
		return
	}
	user, err := s.userRepo.GetByID(ctx, *order.UserID)
	if err != nil {
		s.logger.Warn("order confirmation skipped", zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	task, err := jobs.NewOrderConfirmationTask(order.ID, user.Email, order.Total)
	if err == nil {
		err = jobs.Enqueue(ctx, s.queue, task)
	}
	if err != nil {
		s.logger.Error("order confirmation email not queued", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (s *paymentService) publish(ctx context.Context, eventType string, payment *models.Payment, reason string) {
	err := s.publisher.Publish(ctx, eventType, payment.OrderID.String(), events.PaymentPayload{
		OrderID:       payment.OrderID.String(),
		PaymentID:     payment.ID.String(),
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Reason:        reason,
	})
	if err != nil {
		s.logger.Warn("failed to publish event", zap.String("event_type", eventType), zap.String("order_id", payment.OrderID.String()), zap.Error(err))
	}
}
