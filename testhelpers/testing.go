package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"storefront/internal/models"
	"storefront/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the schema; the test is skipped when unset
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString, 20, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	db := &TestDB{Pool: pool, Cleanup: pool.Close}
	t.Cleanup(db.Cleanup)
	return db
}

// SetupTestUser creates an active customer
func SetupTestUser(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, is_active, is_verified)
		VALUES ($1, $2, 'x', 'Test', 'Customer', TRUE, TRUE)
	`
	email := fmt.Sprintf("customer-%s@example.com", userID)
	if _, err := db.Pool.Exec(context.Background(), query, userID, email); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return userID
}

// SetupTestVariant creates an active product with one variant holding the given stock
func SetupTestVariant(t *testing.T, db *TestDB, price string, stock int) *models.ProductVariant {
	t.Helper()
	ctx := context.Background()

	productID := uuid.New()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO products (id, name, slug, is_active) VALUES ($1, $2, $3, TRUE)`,
		productID, "Test Product", "test-product-"+productID.String())
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       "SKU-" + productID.String()[:8],
		Name:      "Default",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO product_variants (id, product_id, sku, name, price, stock) VALUES ($1, $2, $3, $4, $5, $6)`,
		variant.ID, variant.ProductID, variant.SKU, variant.Name, variant.Price, variant.Stock)
	if err != nil {
		t.Fatalf("Failed to create test variant: %v", err)
	}
	return variant
}

// VariantStock reads the current stock of a variant
func VariantStock(t *testing.T, db *TestDB, variantID uuid.UUID) int {
	t.Helper()

	var stock int
	if err := db.Pool.QueryRow(context.Background(), `SELECT stock FROM product_variants WHERE id = $1`, variantID).Scan(&stock); err != nil {
		t.Fatalf("Failed to read variant stock: %v", err)
	}
	return stock
}
