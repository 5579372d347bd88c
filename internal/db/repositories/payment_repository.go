// payment_repository.go implements the payment ledger. Payments are plain
// rows; no settlement logic lives here.
package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/db/models"
)

// PaymentRepository handles payment database operations.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, subscription_id, amount, payment_method, status, paid_at`

// Create inserts a payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO payments (user_id, subscription_id, amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, paid_at
	`, payment.UserID, payment.SubscriptionID, payment.Amount,
		payment.PaymentMethod, payment.Status).
		Scan(&payment.ID, &payment.PaidAt)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	payment := &models.Payment{}
	err := r.db.GetContext(ctx, payment,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ListByUser returns a user's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	payments := make([]models.Payment, 0)
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY paid_at DESC`,
		userID)
	return payments, err
}
