// role_repository.go implements RoleRepository, covering role definitions and
// the user_roles junction used for capability resolution at login.
package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/resource-share/resource-share/internal/db/models"
)

// RoleRepository handles role and role-assignment database operations.
type RoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns all roles.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]models.Role, 0)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByName retrieves a role by its unique name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

// Create inserts a new role. Duplicate names surface as ErrDuplicate.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`, role.Name).Scan(&role.ID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Assign grants a role to a user. The (user, role) pair is unique; assigning
// the same role twice surfaces as ErrDuplicate.
func (r *RoleRepository) Assign(ctx context.Context, userID, roleID int64) (*models.RoleAssignment, error) {
	assignment := &models.RoleAssignment{UserID: userID, RoleID: roleID}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, userID, roleID).Scan(&assignment.ID, &assignment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "user_roles_user_role_uq") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return assignment, nil
}

// NamesForUser returns the role names assigned to a user. An empty slice
// means no assignments; callers derive the default role from that.
func (r *RoleRepository) NamesForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
