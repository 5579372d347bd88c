package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/auth"
	"github.com/resource-share/resource-share/internal/db/models"
	"github.com/resource-share/resource-share/internal/db/repositories"
)

var userTestCols = []string{"id", "full_name", "email", "username", "profile_image_link", "pwhash", "created_at"}

func newAccountsService(t *testing.T) (*AccountsService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewAccountsService(
		repositories.NewUserRepository(db),
		repositories.NewRoleRepository(db),
		repositories.NewApprovalLogRepository(sqlx.NewDb(db, "postgres")),
		auth.NewHasher(bcrypt.MinCost, 2),
		time.Minute,
	), mock
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct horse battery",
	}
}

// mustHash produces a real bcrypt hash at the cheapest cost for login tests.
func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hashed)
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE username").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada Lovelace", "ada@example.com", "ada", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("ID = %d, want 7", user.ID)
	}
	if user.Pwhash == "" || user.Pwhash == "correct horse battery" {
		t.Errorf("password stored without hashing")
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeConflict)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE username").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeConflict)
	}
}

// Email and username uniqueness is case-sensitive exact matching: the
// probes and the insert carry the caller's strings verbatim, so "Ada@X.com"
// is a different account from "ada@x.com".
func TestRegister_UniquenessIsCaseSensitive(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE email").
		WithArgs("Ada@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS.*FROM users WHERE username").
		WithArgs("AdaL").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada Lovelace", "Ada@Example.com", "AdaL", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), time.Now()))

	input := validRegisterInput()
	input.Email = "Ada@Example.com"
	input.Username = "AdaL"

	user, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "Ada@Example.com" {
		t.Errorf("Email = %q, want stored verbatim", user.Email)
	}
	if user.Username != "AdaL" {
		t.Errorf("Username = %q, want stored verbatim", user.Username)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	svc, _ := newAccountsService(t)

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-address" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
		{"short username", func(in *RegisterInput) { in.Username = "ab" }},
		{"blank name", func(in *RegisterInput) { in.FullName = "  " }},
		{"username with spaces", func(in *RegisterInput) { in.Username = "ada lovelace" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validRegisterInput()
			tc.mutate(&input)
			_, err := svc.Register(context.Background(), input)
			if !apperrors.IsCode(err, apperrors.CodeValidation) {
				t.Errorf("error = %v, want %s", err, apperrors.CodeValidation)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	svc, mock := newAccountsService(t)
	pwhash := mustHash(t, "correct horse battery")
	mock.ExpectQuery("SELECT.*FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userTestCols).
			AddRow(int64(7), "Ada Lovelace", "ada@example.com", "ada", nil, pwhash, time.Now()))
	expectRoleNames(mock, 7, "ADMIN", "USER")

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Role != models.RoleAdmin {
		t.Errorf("Role = %s, want %s", session.Role, models.RoleAdmin)
	}

	claims, err := auth.ValidateToken(session.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "ada" || claims.Role != models.RoleAdmin {
		t.Errorf("claims = %s/%s, want ada/%s", claims.Subject, claims.Role, models.RoleAdmin)
	}
}

func TestLogin_DefaultsToUserRole(t *testing.T) {
	svc, mock := newAccountsService(t)
	pwhash := mustHash(t, "correct horse battery")
	mock.ExpectQuery("SELECT.*FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userTestCols).
			AddRow(int64(7), "Ada Lovelace", "ada@example.com", "ada", nil, pwhash, time.Now()))
	expectRoleNames(mock, 7)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Role != models.RoleUser {
		t.Errorf("Role = %s, want %s", session.Role, models.RoleUser)
	}
}

// Unknown email and wrong password must be indistinguishable to the caller.
func TestLogin_FailuresDoNotLeakAccountExistence(t *testing.T) {
	svc, mock := newAccountsService(t)

	mock.ExpectQuery("SELECT.*FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userTestCols))
	_, unknownErr := svc.Login(context.Background(), "ghost@example.com", "whatever")

	pwhash := mustHash(t, "correct horse battery")
	mock.ExpectQuery("SELECT.*FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userTestCols).
			AddRow(int64(7), "Ada Lovelace", "ada@example.com", "ada", nil, pwhash, time.Now()))
	_, wrongErr := svc.Login(context.Background(), "ada@example.com", "not the password")

	if !apperrors.IsCode(unknownErr, apperrors.CodeAuthentication) {
		t.Fatalf("unknown email error = %v, want %s", unknownErr, apperrors.CodeAuthentication)
	}
	if !apperrors.IsCode(wrongErr, apperrors.CodeAuthentication) {
		t.Fatalf("wrong password error = %v, want %s", wrongErr, apperrors.CodeAuthentication)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("failure messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestAccountDelete(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT EXISTS.*FROM approval_log").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestAccountDelete_BlockedByAuditTrail(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT EXISTS.*FROM approval_log").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := svc.Delete(context.Background(), 3)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeConflict)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

func TestAssignRole(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userTestCols).
			AddRow(int64(7), "Ada Lovelace", "ada@example.com", "ada", nil, "x", time.Now()))
	mock.ExpectQuery("SELECT id, name FROM roles WHERE name").
		WithArgs("ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(2), "ADMIN"))
	mock.ExpectQuery("INSERT INTO user_roles").
		WithArgs(int64(7), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now()))

	assignment, err := svc.AssignRole(context.Background(), 7, "ADMIN")
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if assignment.RoleID != 2 {
		t.Errorf("RoleID = %d, want 2", assignment.RoleID)
	}
}

func TestAssignRole_UnknownRole(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userTestCols).
			AddRow(int64(7), "Ada Lovelace", "ada@example.com", "ada", nil, "x", time.Now()))
	mock.ExpectQuery("SELECT id, name FROM roles WHERE name").
		WithArgs("WIZARD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := svc.AssignRole(context.Background(), 7, "WIZARD")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestAssignRole_UnknownUser(t *testing.T) {
	svc, mock := newAccountsService(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(userTestCols))

	_, err := svc.AssignRole(context.Background(), 404, "ADMIN")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeNotFound)
	}
}
