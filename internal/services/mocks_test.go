package services

import (
	"context"
	"io"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
)

// Mock repositories and services

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter *models.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(ctx context.Context, address *models.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *MockAddressRepository) Update(ctx context.Context, address *models.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *MockAddressRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

func (m *MockAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Address, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Address), args.Error(1)
}

func (m *MockAddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockAddressRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) List(ctx context.Context, filter *models.CategoryFilter) ([]*models.Category, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Category, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) IsDescendant(ctx context.Context, ancestorID, candidateID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ancestorID, candidateID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

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

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) PlaceOrder(ctx context.Context, input *models.PlaceOrderInput) (*models.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter *models.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber *string) (*models.Order, error) {
	args := m.Called(ctx, id, status, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkSucceeded(ctx context.Context, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	return m.Called(ctx, product, ttl).Error(0)
}

func (m *MockCacheService) DeleteProduct(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockCacheService) GetDashboard(ctx context.Context) (*models.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, stats *models.DashboardStats, ttl time.Duration) error {
	return m.Called(ctx, stats, ttl).Error(0)
}

func (m *MockCacheService) SetCartSession(ctx context.Context, sessionID string, cartID uuid.UUID, ttl time.Duration) error {
	return m.Called(ctx, sessionID, cartID, ttl).Error(0)
}

func (m *MockCacheService) GetCartSession(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) DeleteCartSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockCacheService) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, *uuid.UUID, error) {
	args := m.Called(ctx, key, ttl)
	var orderID *uuid.UUID
	if args.Get(1) != nil {
		orderID = args.Get(1).(*uuid.UUID)
	}
	return args.Bool(0), orderID, args.Error(2)
}

func (m *MockCacheService) CompleteIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error {
	return m.Called(ctx, key, orderID, ttl).Error(0)
}

func (m *MockCacheService) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) TakeString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
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

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	return m.Called(ctx, eventType, key, payload).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error) {
	args := m.Called(ctx, order, successURL, cancelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutSession), args.Error(1)
}

func (m *MockPaymentGateway) ParseWebhook(payload []byte, signature string) (*GatewayEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayEvent), args.Error(1)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	return m.Called(ctx, objectKey, reader, size, contentType).Error(0)
}

func (m *MockStorageService) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, objectKey string) error {
	return m.Called(ctx, objectKey).Error(0)
}

func (m *MockStorageService) EnsureBucket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStorageService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockProductRepository struct {
	repositories.ProductRepository
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.ReviewStatus) (*models.Review, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewRepository) List(ctx context.Context, filter *models.ReviewFilter) ([]*models.Review, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReviewRepository) RatingSummary(ctx context.Context, productID uuid.UUID) (int, float64, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Get(1).(float64), args.Error(2)
}
