// subscription_repository.go implements SubscriptionRepository, including the
// active-subscription lookup consulted by download quota enforcement.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/db/models"
)

// SubscriptionRepository handles subscription database operations.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, type, start_date, end_date, download_limit, created_at`

// Create inserts a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (user_id, type, start_date, end_date, download_limit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, sub.UserID, sub.Type, sub.StartDate, sub.EndDate, sub.DownloadLimit).
		Scan(&sub.ID, &sub.CreatedAt)
}

// ListByUser returns a user's subscriptions, newest first.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Subscription, error) {
	subs := make([]models.Subscription, 0)
	err := r.db.SelectContext(ctx, &subs,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	return subs, err
}

// ListExpiringBetween returns subscriptions whose end date falls inside the
// given window, used by the expiry notifier to warn owners before a window
// closes.
func (r *SubscriptionRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	subs := make([]models.Subscription, 0)
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE end_date >= $1 AND end_date <= $2
		ORDER BY end_date ASC
	`, from, to)
	return subs, err
}

// ActiveForUser returns the subscription whose window covers the given
// instant, preferring the most recently created one when several overlap.
// Returns ErrNotFound when no subscription is active.
func (r *SubscriptionRepository) ActiveForUser(ctx context.Context, userID int64, at time.Time) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := r.db.GetContext(ctx, sub, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}
