// rating_repository.go implements RatingRepository. The unique index on
// (resource_id, user_id) is the authoritative one-rating-per-user guard.
package repositories

import (
	"context"
	"database/sql"

	"github.com/resource-share/resource-share/internal/db/models"
)

// RatingRepository handles rating database operations.
type RatingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts a rating. A second rating by the same user for the same
// resource surfaces as ErrDuplicate.
func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ratings (resource_id, user_id, rating_value)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rating.ResourceID, rating.UserID, rating.RatingValue).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "ratings_resource_user_uq") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListByResource returns all ratings for a resource, newest first.
func (r *RatingRepository) ListByResource(ctx context.Context, resourceID int64) ([]models.Rating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, resource_id, user_id, rating_value, created_at
		FROM ratings
		WHERE resource_id = $1
		ORDER BY created_at DESC
	`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(&rating.ID, &rating.ResourceID, &rating.UserID,
			&rating.RatingValue, &rating.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// AverageForResource returns the mean rating and rating count for a resource.
// A resource with no ratings averages zero.
func (r *RatingRepository) AverageForResource(ctx context.Context, resourceID int64) (float64, int, error) {
	var avg float64
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating_value), 0), COUNT(*)
		FROM ratings
		WHERE resource_id = $1
	`, resourceID).Scan(&avg, &count)
	return avg, count, err
}
