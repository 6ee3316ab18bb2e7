package jobs

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/pkg/mailer"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
)

type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) Create(ctx context.Context, variant *models.ProductVariant) error {
	return m.Called(ctx, variant).Error(0)
}

func (m *MockVariantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) Update(ctx context.Context, variant *models.ProductVariant) error {
	return m.Called(ctx, variant).Error(0)
}

func (m *MockVariantRepository) Delete(ctx context.Context, productID, id uuid.UUID) error {
	return m.Called(ctx, productID, id).Error(0)
}

func (m *MockVariantRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProductVariant, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]*models.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]*models.ProductVariant, error) {
	args := m.Called(ctx, productIDs)
	return args.Get(0).(map[uuid.UUID][]*models.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) ListLowStock(ctx context.Context, threshold, limit int) ([]*models.LowStockVariant, error) {
	args := m.Called(ctx, threshold, limit)
	return args.Get(0).([]*models.LowStockVariant), args.Error(1)
}

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepository) AttachUser(ctx context.Context, cartID, userID uuid.UUID) error {
	return m.Called(ctx, cartID, userID).Error(0)
}

func (m *MockCartRepository) AddItem(ctx context.Context, cartID, variantID uuid.UUID, quantity int) error {
	return m.Called(ctx, cartID, variantID, quantity).Error(0)
}

func (m *MockCartRepository) SetItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, quantity int) error {
	return m.Called(ctx, cartID, variantID, quantity).Error(0)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	return m.Called(ctx, cartID, variantID).Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *MockCartRepository) DeleteStaleAnonymous(ctx context.Context, idleSince time.Time) (int64, error) {
	args := m.Called(ctx, idleSince)
	return args.Get(0).(int64), args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}
