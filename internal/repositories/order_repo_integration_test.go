//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := repositories.NewOrderRepo(db.Pool)

	variant := testhelpers.SetupTestVariant(t, db, "19.99", 1)
	buyers := []uuid.UUID{testhelpers.SetupTestUser(t, db), testhelpers.SetupTestUser(t, db)}

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, userID := range buyers {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = repo.PlaceOrder(context.Background(), &models.PlaceOrderInput{
				UserID: userID,
				Lines:  []models.OrderLine{{VariantID: variant.ID, Quantity: 1}},
			})
		}(i, userID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, common.ErrInsufficientStock), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, testhelpers.VariantStock(t, db, variant.ID))
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := repositories.NewOrderRepo(db.Pool)

	plenty := testhelpers.SetupTestVariant(t, db, "5.00", 10)
	scarce := testhelpers.SetupTestVariant(t, db, "7.50", 1)
	userID := testhelpers.SetupTestUser(t, db)

	_, err := repo.PlaceOrder(context.Background(), &models.PlaceOrderInput{
		UserID: userID,
		Lines: []models.OrderLine{
			{VariantID: plenty.ID, Quantity: 3},
			{VariantID: scarce.ID, Quantity: 2},
		},
	})
	var stockErr *common.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.VariantID)
	assert.Equal(t, 10, testhelpers.VariantStock(t, db, plenty.ID))
	assert.Equal(t, 1, testhelpers.VariantStock(t, db, scarce.ID))

	order, err := repo.PlaceOrder(context.Background(), &models.PlaceOrderInput{
		UserID: userID,
		Lines: []models.OrderLine{
			{VariantID: plenty.ID, Quantity: 3},
			{VariantID: scarce.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("22.50").Equal(order.Total))
	assert.Equal(t, 7, testhelpers.VariantStock(t, db, plenty.ID))
	assert.Equal(t, 0, testhelpers.VariantStock(t, db, scarce.ID))
}
