package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefrontlabs/storefront-api/internal/models"
	"github.com/storefrontlabs/storefront-api/internal/utils"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Payment, int, error)
	UpdatePaymentStatusByIntentID(ctx context.Context, intentID string, status models.PaymentStatus) error
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO payments (id, order_id, user_id, amount, currency, status, stripe_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`

	return r.DB.QueryRowContext(dbCtx, query,
		payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Currency,
		payment.Status, payment.StripeIntentID).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)
}

func (r *paymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	payment := &models.Payment{}

	query := `
		SELECT id, order_id, user_id, amount, currency, status, stripe_intent_id, created_at, updated_at
		FROM payments
		WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&payment.ID, &payment.OrderID, &payment.UserID, &payment.Amount, &payment.Currency,
			&payment.Status, &payment.StripeIntentID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepository) ListPaymentsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Payment, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM payments WHERE user_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, order_id, user_id, amount, currency, status, stripe_intent_id, created_at, updated_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	defer rows.Close()

	var payments []*models.Payment

	for rows.Next() {

		payment := &models.Payment{}

		err := rows.Scan(&payment.ID, &payment.OrderID, &payment.UserID, &payment.Amount, &payment.Currency,
			&payment.Status, &payment.StripeIntentID, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", err)
		}

		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) UpdatePaymentStatusByIntentID(ctx context.Context, intentID string, status models.PaymentStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE stripe_intent_id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, status, intentID)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
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
