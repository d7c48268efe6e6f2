package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefrontlabs/storefront-api/internal/models"
	"github.com/storefrontlabs/storefront-api/internal/utils"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListAllOrders(ctx context.Context, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateOrder persists the order and its items inside one transaction, so
// a snapshot is either fully written or not at all.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	billingJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal billing address: %w", err)
	}

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, status, total_amount, shipping_address, billing_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	if _, err := tx.ExecContext(dbCtx, query, order.ID, order.UserID, order.Status, order.TotalAmount, shippingJSON, billingJSON); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`

	for _, item := range order.Items {
		if _, err := tx.ExecContext(dbCtx, itemQuery, item.ID, order.ID, item.ProductID, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	return r.getOrder(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, billing_address, created_at, updated_at
		FROM orders
		WHERE id = $1`, id)
}

// GetOrderForUser scopes the lookup to the owner; an order belonging to a
// different user behaves exactly like a missing order.
func (r *orderRepository) GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {

	return r.getOrder(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, billing_address, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *orderRepository) getOrder(ctx context.Context, query string, args ...any) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{}

	var shippingJSON, billingJSON []byte

	err := r.DB.QueryRowContext(dbCtx, query, args...).
		Scan(&order.ID, &order.UserID, &order.Status, &order.TotalAmount, &shippingJSON, &billingJSON, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	if err := json.Unmarshal(billingJSON, &order.BillingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal billing address: %w", err)
	}

	items, err := r.loadItems(dbCtx, order.ID)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {

		var item models.OrderItem

		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = orderID
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	return r.listOrders(ctx, `WHERE user_id = $1`, []any{userID}, page, size)
}

func (r *orderRepository) ListAllOrders(ctx context.Context, page, size int) ([]models.Order, int, error) {

	return r.listOrders(ctx, ``, nil, page, size)
}

func (r *orderRepository) listOrders(ctx context.Context, where string, args []any, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders ` + where

	if err := r.DB.QueryRowContext(dbCtx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size
	listArgs := append(args, size, offset)

	query := fmt.Sprintf(`
		SELECT id, user_id, status, total_amount, shipping_address, billing_address, created_at, updated_at
		FROM orders %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(listArgs)-1, len(listArgs))

	rows, err := r.DB.QueryContext(dbCtx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		var order models.Order

		var shippingJSON, billingJSON []byte

		err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.TotalAmount, &shippingJSON, &billingJSON, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}

		if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal shipping address: %w", err)
		}

		if err := json.Unmarshal(billingJSON, &order.BillingAddress); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal billing address: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		items, err := r.loadItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}

		orders[i].Items = items
	}

	return orders, total, nil
}

// UpdateOrderStatus applies a transition only when the row still carries
// the status the caller validated against, so concurrent updates lose
// instead of silently overwriting.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := r.DB.ExecContext(dbCtx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
