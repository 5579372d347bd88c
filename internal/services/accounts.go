// accounts.go implements registration, login, and profile management. Role
// resolution happens here at login time: the effective role is derived from
// the user's role assignments, defaulting to USER when none exist, and the
// highest-privilege role wins when several are assigned.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/audit"
	"github.com/resource-share/resource-share/internal/auth"
	"github.com/resource-share/resource-share/internal/db/models"
	"github.com/resource-share/resource-share/internal/db/repositories"
	"github.com/resource-share/resource-share/internal/safego"
	"github.com/resource-share/resource-share/internal/telemetry"
	"github.com/resource-share/resource-share/internal/validation"
)

// AccountsService handles user accounts and sessions.
type AccountsService struct {
	users     *repositories.UserRepository
	roles     *repositories.RoleRepository
	approvals *repositories.ApprovalLogRepository
	hasher    *auth.Hasher
	tokenTTL  time.Duration
	audit     audit.Shipper
}

// NewAccountsService creates an AccountsService.
func NewAccountsService(
	users *repositories.UserRepository,
	roles *repositories.RoleRepository,
	approvals *repositories.ApprovalLogRepository,
	hasher *auth.Hasher,
	tokenTTL time.Duration,
) *AccountsService {
	return &AccountsService{
		users:     users,
		roles:     roles,
		approvals: approvals,
		hasher:    hasher,
		tokenTTL:  tokenTTL,
		audit:     audit.Nop{},
	}
}

// SetAuditShipper routes authentication and account events to an external
// audit destination.
func (s *AccountsService) SetAuditShipper(shipper audit.Shipper) {
	s.audit = shipper
}

// ship sends an audit event off the request path.
func (s *AccountsService) ship(event *audit.Event) {
	event.Timestamp = time.Now().UTC()
	shipper := s.audit
	safego.Go(func() {
		if err := shipper.Ship(context.Background(), event); err != nil {
			slog.Warn("audit shipping failed", "action", event.Action, "error", err)
		}
	})
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	FullName         string
	Email            string
	Username         string
	Password         string
	ProfileImageLink *string
}

// Register creates a new account. Email and username must be unique; the
// pre-insert checks give precise conflict messages, and the database unique
// indexes close the check-then-insert race.
func (s *AccountsService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := validation.ValidateFullName(input.FullName); err != nil {
		return nil, apperrors.Validation("users", err.Error())
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, apperrors.Validation("users", err.Error())
	}
	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, apperrors.Validation("users", err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.Validation("users", err.Error())
	}

	if taken, err := s.users.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, apperrors.Internal("users", err)
	} else if taken {
		return nil, apperrors.Conflict("users", "email already taken")
	}
	if taken, err := s.users.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, apperrors.Internal("users", err)
	} else if taken {
		return nil, apperrors.Conflict("users", "username already taken")
	}

	pwhash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, apperrors.Internal("users", err)
	}

	user := &models.User{
		FullName:         input.FullName,
		Email:            input.Email,
		Username:         input.Username,
		ProfileImageLink: input.ProfileImageLink,
		Pwhash:           pwhash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("users", "email or username already taken")
		}
		return nil, apperrors.Internal("users", err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Session is the result of a successful login.
type Session struct {
	Token string
	Role  string
	User  *models.User
}

// Login verifies credentials and issues a session token carrying the
// effective role. Unknown email and wrong password produce the same
// AuthenticationError so the response does not leak which emails exist.
func (s *AccountsService) Login(ctx context.Context, email, password string) (*Session, error) {
	fail := func() (*Session, error) {
		telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.ship(&audit.Event{Action: audit.ActionLoginFailure})
		return nil, apperrors.Authentication("auth", "invalid email or password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail()
	}
	if err != nil {
		return nil, apperrors.Internal("auth", err)
	}

	if err := s.hasher.Compare(ctx, user.Pwhash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return fail()
		}
		return nil, apperrors.Internal("auth", err)
	}

	names, err := s.roles.NamesForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("auth", err)
	}
	role := models.EffectiveRole(names)

	token, err := auth.GenerateToken(user.Username, role, s.tokenTTL)
	if err != nil {
		return nil, apperrors.Internal("auth", err)
	}

	telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.ship(&audit.Event{Action: audit.ActionLoginSuccess, ActorID: user.ID, Username: user.Username})
	slog.Info("user logged in", "user_id", user.ID, "role", role)
	return &Session{Token: token, Role: role, User: user}, nil
}

// Get retrieves a user by ID.
func (s *AccountsService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("users", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("users", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (s *AccountsService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("users", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("users", err)
	}
	return user, nil
}

// List returns all users.
func (s *AccountsService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("users", err)
	}
	return users, nil
}

// ExistsByEmail reports whether an account with the given email exists. Used
// by the password-reset existence check.
func (s *AccountsService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, apperrors.Internal("users", err)
	}
	return exists, nil
}

// UpdateProfile changes the mutable profile fields (display name and image
// link). Email and username are immutable after registration.
func (s *AccountsService) UpdateProfile(ctx context.Context, id int64, fullName string, profileImageLink *string) (*models.User, error) {
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, apperrors.Validation("users", err.Error())
	}

	user, err := s.users.UpdateProfile(ctx, id, fullName, profileImageLink)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("users", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("users", err)
	}
	return user, nil
}

// Delete removes an account. Accounts that authored approval audit rows
// cannot be deleted: the trail is retained forever and must keep a valid
// actor reference.
func (s *AccountsService) Delete(ctx context.Context, id int64) error {
	hasActivity, err := s.approvals.HasAdminActivity(ctx, id)
	if err != nil {
		return apperrors.Internal("users", err)
	}
	if hasActivity {
		return apperrors.Conflict("users", "user has approval audit records and cannot be deleted")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("users", "user not found")
		}
		return apperrors.Internal("users", err)
	}

	s.ship(&audit.Event{Action: audit.ActionUserDelete, ActorID: id})
	slog.Info("user deleted", "user_id", id)
	return nil
}

// AssignRole grants a named role to a user.
func (s *AccountsService) AssignRole(ctx context.Context, userID int64, roleName string) (*models.RoleAssignment, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("roles", "role not found")
	}
	if err != nil {
		return nil, apperrors.Internal("roles", err)
	}

	assignment, err := s.roles.Assign(ctx, userID, role.ID)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperrors.Conflict("roles", "role already assigned to user")
	}
	if err != nil {
		return nil, apperrors.Internal("roles", err)
	}

	s.ship(&audit.Event{Action: audit.ActionRoleGrant, ActorID: userID, Metadata: map[string]interface{}{"role": roleName}})
	slog.Info("role assigned", "user_id", userID, "role", roleName)
	return assignment, nil
}

// ListRoles returns all defined roles.
func (s *AccountsService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("roles", err)
	}
	return roles, nil
}

// CreateRole defines a new role.
func (s *AccountsService) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	if name == "" {
		return nil, apperrors.Validation("roles", "role name is required")
	}

	role := &models.Role{Name: name}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("roles", "role already exists")
		}
		return nil, apperrors.Internal("roles", err)
	}
	return role, nil
}
