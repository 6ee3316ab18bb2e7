package jobs

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

const lowStockScanLimit = 500

// LowStockAlertService reports variants whose stock fell below the threshold
type LowStockAlertService struct {
	variantRepo repositories.VariantRepository
	queue       Enqueuer
	logger      *zap.Logger
	inbox       string
	threshold   int
}

func NewLowStockAlertService(variantRepo repositories.VariantRepository, queue Enqueuer, logger *zap.Logger, inbox string, threshold int) *LowStockAlertService {
	if threshold <= 0 {
		threshold = 10
	}
	return &LowStockAlertService{
		variantRepo: variantRepo,
		queue:       queue,
		logger:      logger,
		inbox:       inbox,
		threshold:   threshold,
	}
}

func (a *LowStockAlertService) CheckLowStock(ctx context.Context) ([]*models.LowStockVariant, error) {
	return a.variantRepo.ListLowStock(ctx, a.threshold, lowStockScanLimit)
}

// Run logs every low variant and mails one digest when there are any
func (a *LowStockAlertService) Run(ctx context.Context) error {
	variants, err := a.CheckLowStock(ctx)
	if err != nil {
		a.logger.Error("low stock scan failed", zap.Error(err))
		return err
	}
	if len(variants) == 0 {
		a.logger.Debug("no low stock variants", zap.Int("threshold", a.threshold))
		return nil
	}

	lines := make([]LowStockLine, 0, len(variants))
	for _, v := range variants {
		a.logger.Warn("low stock",
			zap.String("variant_id", v.VariantID.String()),
			zap.String("sku", v.SKU),
			zap.Int("stock", v.Stock),
			zap.Int("threshold", a.threshold),
		)
		lines = append(lines, LowStockLine{SKU: v.SKU, DisplayName: v.DisplayName, Stock: v.Stock})
	}

	task, err := NewLowStockTask(LowStockPayload{To: a.inbox, Threshold: a.threshold, Variants: lines})
	if err != nil {
		return err
	}
	return Enqueue(ctx, a.queue, task)
}
