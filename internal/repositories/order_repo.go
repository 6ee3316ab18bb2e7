package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	PlaceOrder(ctx context.Context, input *models.PlaceOrderInput) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter *models.OrderFilter) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber *string) (*models.Order, error)
}

type orderRepo struct {
	db DBTX
}

func NewOrderRepo(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

const orderColumns = `id, user_id, status, total, shipping_address_id, billing_address_id, tracking_number, placed_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.ShippingAddressID, &o.BillingAddressID,
		&o.TrackingNumber, &o.PlacedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

type lockedVariant struct {
	price       decimal.Decimal
	stock       int
	displayName string
}

// MergeOrderLines sums quantities of repeated variants and sorts lines by variant id
func MergeOrderLines(lines []models.OrderLine) []models.OrderLine {
	byVariant := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		byVariant[line.VariantID] += line.Quantity
	}
	merged := make([]models.OrderLine, 0, len(byVariant))
	for variantID, quantity := range byVariant {
		merged = append(merged, models.OrderLine{VariantID: variantID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].VariantID.String() < merged[j].VariantID.String()
	})
	return merged
}

func checkLineQuantity(line models.OrderLine) error {
	if line.Quantity < 1 {
		return fmt.Errorf("quantity for variant %s must be at least 1: %w", line.VariantID, common.ErrInvalidInput)
	}
	if line.Quantity > models.MaxLineQuantity {
		return fmt.Errorf("quantity for variant %s cannot exceed %d: %w", line.VariantID, models.MaxLineQuantity, common.ErrInvalidInput)
	}
	return nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// PlaceOrder locks every referenced variant, checks stock, writes the order with its items and
// decrements stock, all in one transaction. Any failure rolls everything back.
func (r *orderRepo) PlaceOrder(ctx context.Context, input *models.PlaceOrderInput) (*models.Order, error) {
	// bounding every raw line first keeps the merged sums far from int overflow
	for _, line := range input.Lines {
		if err := checkLineQuantity(line); err != nil {
			return nil, err
		}
	}
	lines := MergeOrderLines(input.Lines)
	if len(lines) == 0 {
		return nil, fmt.Errorf("order has no items: %w", common.ErrInvalidInput)
	}
	variantIDs := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		if err := checkLineQuantity(line); err != nil {
			return nil, err
		}
		variantIDs[i] = line.VariantID
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// One statement with a fixed ORDER BY gives every transaction the same lock order
	lockQuery := `
		SELECT v.id, v.price, v.stock, p.name || ' - ' || v.name
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = ANY($1)
		ORDER BY v.id
		FOR UPDATE OF v
	`
	rows, err := tx.Query(ctx, lockQuery, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock variants: %w", err)
	}
	locked := make(map[uuid.UUID]lockedVariant, len(lines))
	for rows.Next() {
		var id uuid.UUID
		var v lockedVariant
		if err := rows.Scan(&id, &v.price, &v.stock, &v.displayName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan locked variant: %w", err)
		}
		locked[id] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock variants: %w", err)
	}

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            &input.UserID,
		Status:            models.OrderStatusPending,
		ShippingAddressID: input.ShippingAddressID,
		BillingAddressID:  input.BillingAddressID,
	}
	for _, line := range lines {
		v, ok := locked[line.VariantID]
		if !ok {
			return nil, &common.VariantNotFoundError{VariantID: line.VariantID}
		}
		if line.Quantity > v.stock {
			return nil, &common.InsufficientStockError{
				VariantID:   line.VariantID,
				DisplayName: v.displayName,
				Requested:   line.Quantity,
				Available:   v.stock,
			}
		}
		variantID := line.VariantID
		order.Items = append(order.Items, &models.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			VariantID:       &variantID,
			ProductName:     v.displayName,
			Quantity:        line.Quantity,
			PriceAtPurchase: v.price,
		})
	}
	order.RecomputeTotal()

	insertOrder := `
		INSERT INTO orders (id, user_id, status, total, shipping_address_id, billing_address_id, placed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING placed_at, updated_at
	`
	err = tx.QueryRow(ctx, insertOrder, order.ID, order.UserID, order.Status, order.Total,
		order.ShippingAddressID, order.BillingAddressID).Scan(&order.PlacedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	itemRows := make([][]interface{}, len(order.Items))
	for i, item := range order.Items {
		itemRows[i] = []interface{}{
			pgtype.UUID{Bytes: item.ID, Valid: true},
			pgtype.UUID{Bytes: order.ID, Valid: true},
			pgtype.UUID{Bytes: *item.VariantID, Valid: true},
			int32(item.Quantity),
			numeric(item.PriceAtPurchase),
		}
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "variant_id", "quantity", "price_at_purchase"}, pgx.CopyFromRows(itemRows))
	if err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}
	if copied != int64(len(order.Items)) {
		return nil, fmt.Errorf("failed to create order items: wrote %d of %d", copied, len(order.Items))
	}

	for _, item := range order.Items {
		_, err := tx.Exec(ctx, `UPDATE product_variants SET stock = stock - $1, updated_at = NOW() WHERE id = $2`,
			item.Quantity, *item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock for variant %s: %w", *item.VariantID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}

	query := `
		SELECT oi.id, oi.order_id, oi.variant_id, COALESCE(p.name || ' - ' || v.name, ''), oi.quantity, oi.price_at_purchase
		FROM order_items oi
		LEFT JOIN product_variants v ON v.id = oi.variant_id
		LEFT JOIN products p ON p.id = v.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name, v.name
	`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	order.Items = []*models.OrderItem{}
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.ProductName, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func (r *orderRepo) List(ctx context.Context, filter *models.OrderFilter) ([]*models.Order, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filter.UserID != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filter.Status)
	}
	if filter.PlacedAfter != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("placed_at >= $%d", argCount))
		args = append(args, *filter.PlacedAfter)
	}
	if filter.PlacedBefore != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("placed_at < $%d", argCount))
		args = append(args, *filter.PlacedBefore)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + orderClause(filter.Ordering, map[string]string{
		"placed_at":  "placed_at ASC",
		"-placed_at": "placed_at DESC",
		"total":      "total ASC",
		"-total":     "total DESC",
	}, "placed_at DESC")

	argCount++
	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, filter.Limit)
	argCount++
	query += fmt.Sprintf(" OFFSET $%d", argCount)
	args = append(args, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber *string) (*models.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, tracking_number = COALESCE($2, tracking_number), updated_at = NOW()
		WHERE id = $3
		RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRow(ctx, query, status, trackingNumber, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return order, nil
}
