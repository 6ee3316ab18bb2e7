package jobs

import (
	"context"
	"time"

	"storefront/internal/repositories"

	"go.uber.org/zap"
)

const StaleCartAge = 30 * 24 * time.Hour

// StaleCartCleaner removes anonymous carts nobody touched for StaleCartAge
type StaleCartCleaner struct {
	cartRepo repositories.CartRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewStaleCartCleaner(cartRepo repositories.CartRepository, logger *zap.Logger) *StaleCartCleaner {
	return &StaleCartCleaner{cartRepo: cartRepo, logger: logger, now: time.Now}
}

func (c *StaleCartCleaner) Run(ctx context.Context) error {
	deleted, err := c.cartRepo.DeleteStaleAnonymous(ctx, c.now().Add(-StaleCartAge))
	if err != nil {
		c.logger.Error("stale cart cleanup failed", zap.Error(err))
		return err
	}
	c.logger.Info("stale carts removed", zap.Int64("count", deleted))
	return nil
}
