package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "storefront:"

// idempotencyPending marks a claimed key whose order has not been written yet
const idempotencyPending = "pending"

type CacheService interface {
	// Product detail caching, keyed by slug
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, slug string) error

	// Dashboard caching
	GetDashboard(ctx context.Context) (*models.DashboardStats, error)
	SetDashboard(ctx context.Context, stats *models.DashboardStats, ttl time.Duration) error

	// Cart session mapping
	SetCartSession(ctx context.Context, sessionID string, cartID uuid.UUID, ttl time.Duration) error
	GetCartSession(ctx context.Context, sessionID string) (uuid.UUID, bool, error)
	DeleteCartSession(ctx context.Context, sessionID string) error

	// Idempotency keys for order placement
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (claimed bool, orderID *uuid.UUID, err error)
	CompleteIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	TakeString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient accepts a bare host:port or a redis:// URL
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(pingErr))
	} else {
		logger.Info("redis connection established", zap.String("addr", parsedAddr))
	}
	return client
}

func NewRedisCacheService(client *redis.Client, logger *zap.Logger) CacheService {
	return &redisCacheService{client: client, logger: logger}
}

// Key namespaces the given parts under the storefront prefix
func Key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	found, err := r.getJSON(ctx, Key("product", slug), &product)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	return r.setJSON(ctx, Key("product", product.Slug), product, ttl)
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, slug string) error {
	return r.client.Del(ctx, Key("product", slug)).Err()
}

func (r *redisCacheService) GetDashboard(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	found, err := r.getJSON(ctx, Key("stats", "dashboard"), &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, stats *models.DashboardStats, ttl time.Duration) error {
	return r.setJSON(ctx, Key("stats", "dashboard"), stats, ttl)
}

func (r *redisCacheService) SetCartSession(ctx context.Context, sessionID string, cartID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, Key("cart_session", sessionID), cartID.String(), ttl).Err()
}

func (r *redisCacheService) GetCartSession(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	val, err := r.client.Get(ctx, Key("cart_session", sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	cartID, err := uuid.Parse(val)
	if err != nil {
		r.logger.Warn("dropping malformed cart session", zap.String("session_id", sessionID))
		return uuid.Nil, false, r.DeleteCartSession(ctx, sessionID)
	}
	return cartID, true, nil
}

func (r *redisCacheService) DeleteCartSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, Key("cart_session", sessionID)).Err()
}

// ClaimIdempotencyKey atomically claims key. When someone else holds it, orderID is the order
// they recorded, or nil while that request is still in flight.
func (r *redisCacheService) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, *uuid.UUID, error) {
	cacheKey := Key("idem", key)
	claimed, err := r.client.SetNX(ctx, cacheKey, idempotencyPending, ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return true, nil, nil
	}
	val, err := r.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if val == idempotencyPending {
		return false, nil, nil
	}
	orderID, err := uuid.Parse(val)
	if err != nil {
		return false, nil, fmt.Errorf("corrupt idempotency key %q: %w", key, err)
	}
	return false, &orderID, nil
}

func (r *redisCacheService) CompleteIdempotencyKey(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, Key("idem", key), orderID.String(), ttl).Err()
}

func (r *redisCacheService) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return r.client.Del(ctx, Key("idem", key)).Err()
}

// IsRateLimited counts a hit in a fixed window and reports whether the limit is exceeded.
// INCR and EXPIRE NX share one MULTI so a counter never outlives its window.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := Key("ratelimit", key)
	var count *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, cacheKey)
		pipe.ExpireNX(ctx, cacheKey, window)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("failed to count rate limit hit: %w", err)
	}
	return count.Val() > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

// TakeString reads and deletes key in one step, for single-use tokens
func (r *redisCacheService) TakeString(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
