// download_log_repository.go implements the append-only download ledger and
// the count queries used for quota enforcement.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/resource-share/resource-share/internal/db/models"
)

// DownloadLogRepository handles download log database operations.
type DownloadLogRepository struct {
	db *sql.DB
}

// NewDownloadLogRepository creates a new DownloadLogRepository.
func NewDownloadLogRepository(db *sql.DB) *DownloadLogRepository {
	return &DownloadLogRepository{db: db}
}

// Create appends a download event.
func (r *DownloadLogRepository) Create(ctx context.Context, entry *models.DownloadLog) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO download_log (user_id, resource_id)
		VALUES ($1, $2)
		RETURNING id, downloaded_at
	`, entry.UserID, entry.ResourceID).Scan(&entry.ID, &entry.DownloadedAt)
}

// CountForUserSince counts a user's downloads at or after the given instant.
func (r *DownloadLogRepository) CountForUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM download_log
		WHERE user_id = $1 AND downloaded_at >= $2
	`, userID, since).Scan(&count)
	return count, err
}

// ListByUser returns a user's download history, newest first.
func (r *DownloadLogRepository) ListByUser(ctx context.Context, userID int64) ([]models.DownloadLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, resource_id, downloaded_at
		FROM download_log
		WHERE user_id = $1
		ORDER BY downloaded_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.DownloadLog, 0)
	for rows.Next() {
		var entry models.DownloadLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.ResourceID, &entry.DownloadedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
