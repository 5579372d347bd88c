// approval_log_repository.go implements read access to the approval audit
// trail. Rows are written exclusively by ResourceRepository.Transition inside
// the transition transaction; this repository intentionally exposes no insert,
// update, or delete so the trail stays append-only from the application's
// point of view.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/db/models"
)

// ApprovalLogRepository handles audit trail queries.
type ApprovalLogRepository struct {
	db *sqlx.DB
}

// NewApprovalLogRepository creates a new ApprovalLogRepository.
func NewApprovalLogRepository(db *sqlx.DB) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: db}
}

const approvalLogColumns = `id, admin_id, resource_id, status, reason, action_at`

// ListByResource returns the audit rows for a resource in action order.
func (r *ApprovalLogRepository) ListByResource(ctx context.Context, resourceID int64) ([]models.ApprovalLog, error) {
	entries := make([]models.ApprovalLog, 0)
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+approvalLogColumns+` FROM approval_log WHERE resource_id = $1 ORDER BY action_at`,
		resourceID)
	return entries, err
}

// ListByAdmin returns the audit rows recorded by an administrator, newest first.
func (r *ApprovalLogRepository) ListByAdmin(ctx context.Context, adminID int64) ([]models.ApprovalLog, error) {
	entries := make([]models.ApprovalLog, 0)
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+approvalLogColumns+` FROM approval_log WHERE admin_id = $1 ORDER BY action_at DESC`,
		adminID)
	return entries, err
}

// HasAdminActivity reports whether the user authored any audit rows. Users
// with audit activity must not be deleted, or the trail would reference a
// missing actor.
func (r *ApprovalLogRepository) HasAdminActivity(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM approval_log WHERE admin_id = $1)`, userID)
	return exists, err
}
