// resource_repository.go implements ResourceRepository, including the guarded
// lifecycle transition that is the heart of the approval workflow. A
// transition is a conditional update ("... WHERE status = 'PENDING'") plus an
// audit row insert committed in one transaction: either both apply or
// neither. The affected-row count of the conditional update is how a lost
// race is detected — the loser of a concurrent approve/reject sees zero rows
// and surfaces ErrNotPending instead of silently overwriting the winner.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/db/models"
)

// ResourceRepository handles resource database operations.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

const resourceColumns = `id, uploader_id, title, description, file_url, status, created_at, approved_at`

// Create inserts a new resource in the PENDING state, filling in the
// server-assigned ID, status, and creation timestamp. The stored status is
// always PENDING regardless of what the caller set on the struct.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	query := `
		INSERT INTO resources (uploader_id, title, description, file_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		resource.UploaderID,
		resource.Title,
		resource.Description,
		resource.FileURL,
	).Scan(&resource.ID, &resource.Status, &resource.CreatedAt)
}

// GetByID retrieves a resource by ID.
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*models.Resource, error) {
	resource := &models.Resource{}
	err := r.db.GetContext(ctx, resource,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return resource, nil
}

// List returns all resources, newest first.
func (r *ResourceRepository) List(ctx context.Context) ([]models.Resource, error) {
	resources := make([]models.Resource, 0)
	err := r.db.SelectContext(ctx, &resources,
		`SELECT `+resourceColumns+` FROM resources ORDER BY created_at DESC`)
	return resources, err
}

// ListByUploader returns all resources submitted by the given user.
func (r *ResourceRepository) ListByUploader(ctx context.Context, uploaderID int64) ([]models.Resource, error) {
	resources := make([]models.Resource, 0)
	err := r.db.SelectContext(ctx, &resources,
		`SELECT `+resourceColumns+` FROM resources WHERE uploader_id = $1 ORDER BY created_at DESC`,
		uploaderID)
	return resources, err
}

// ListByStatus returns all resources in the given lifecycle state, oldest
// first so admin review queues are processed in submission order.
func (r *ResourceRepository) ListByStatus(ctx context.Context, status models.ResourceStatus) ([]models.Resource, error) {
	resources := make([]models.Resource, 0)
	err := r.db.SelectContext(ctx, &resources,
		`SELECT `+resourceColumns+` FROM resources WHERE status = $1 ORDER BY created_at`,
		status)
	return resources, err
}

// Transition moves a PENDING resource to APPROVED or REJECTED and appends the
// audit row, atomically. Returns ErrNotFound when the resource does not
// exist and ErrNotPending when it has already left the PENDING state (for
// example when a concurrent transition won the race).
func (r *ResourceRepository) Transition(ctx context.Context, resourceID, adminID int64, status models.ResourceStatus, reason *string) (*models.Resource, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now()
	var approvedAt *time.Time
	if status == models.ResourceStatusApproved {
		approvedAt = &now
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE resources
		SET status = $1, approved_at = $2
		WHERE id = $3 AND status = 'PENDING'
	`, status, approvedAt, resourceID)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost the conditional update: distinguish a missing resource from
		// one that is no longer PENDING.
		var current models.ResourceStatus
		err := tx.GetContext(ctx, &current,
			`SELECT status FROM resources WHERE id = $1`, resourceID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrNotPending
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO approval_log (admin_id, resource_id, status, reason, action_at)
		VALUES ($1, $2, $3, $4, $5)
	`, adminID, resourceID, status, reason, now)
	if err != nil {
		return nil, err
	}

	resource := &models.Resource{}
	if err := tx.GetContext(ctx, resource,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, resourceID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return resource, nil
}

// Delete removes a resource. Ratings and download log rows cascade; approval
// audit rows are retained by design of the schema.
func (r *ResourceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
