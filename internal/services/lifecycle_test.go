package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/db/repositories"
)

var resourceTestCols = []string{"id", "uploader_id", "title", "description", "file_url", "status", "created_at", "approved_at"}

// newLifecycleService backs every repository with the same mock connection so
// expectations read top to bottom in call order.
func newLifecycleService(t *testing.T) (*LifecycleService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewLifecycleService(
		repositories.NewResourceRepository(sqlxDB),
		repositories.NewApprovalLogRepository(sqlxDB),
		repositories.NewRoleRepository(db),
	), mock
}

func expectRoleNames(mock sqlmock.Sqlmock, userID int64, names ...string) {
	rows := sqlmock.NewRows([]string{"name"})
	for _, name := range names {
		rows.AddRow(name)
	}
	mock.ExpectQuery("SELECT r.name.*FROM user_roles").WithArgs(userID).WillReturnRows(rows)
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestSubmit(t *testing.T) {
	svc, mock := newLifecycleService(t)
	mock.ExpectQuery("INSERT INTO resources").
		WithArgs(int64(5), "Calculus Notes", "first semester", "files/calc.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).
			AddRow(int64(42), "PENDING", time.Now()))

	resource, err := svc.Submit(context.Background(), 5, "Calculus Notes", "first semester", "files/calc.pdf")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resource.ID != 42 {
		t.Errorf("ID = %d, want 42", resource.ID)
	}
}

func TestSubmit_BlankTitleRejected(t *testing.T) {
	svc, _ := newLifecycleService(t)
	_, err := svc.Submit(context.Background(), 5, "   ", "", "files/x.pdf")
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeValidation)
	}
}

func TestSubmit_MissingFileReference(t *testing.T) {
	svc, _ := newLifecycleService(t)
	_, err := svc.Submit(context.Background(), 5, "Title", "", "")
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeValidation)
	}
}

// ---------------------------------------------------------------------------
// Approve / Reject
// ---------------------------------------------------------------------------

func TestApprove(t *testing.T) {
	svc, mock := newLifecycleService(t)
	expectRoleNames(mock, 3, "ADMIN")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_log").
		WithArgs(int64(3), int64(42), "APPROVED", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(resourceTestCols).
			AddRow(int64(42), int64(5), "Calculus Notes", "", "files/calc.pdf", "APPROVED", now, now))
	mock.ExpectCommit()

	resource, err := svc.Approve(context.Background(), 3, 42, nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if resource.Status != "APPROVED" {
		t.Errorf("Status = %s, want APPROVED", resource.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestApprove_NonAdmin(t *testing.T) {
	svc, mock := newLifecycleService(t)
	expectRoleNames(mock, 9, "USER")

	_, err := svc.Approve(context.Background(), 9, 42, nil)
	if !apperrors.IsCode(err, apperrors.CodeAuthorization) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeAuthorization)
	}
	// No transaction may have been opened.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestApprove_NoRoleAssignmentsIsNotAdmin(t *testing.T) {
	svc, mock := newLifecycleService(t)
	expectRoleNames(mock, 9)

	_, err := svc.Approve(context.Background(), 9, 42, nil)
	if !apperrors.IsCode(err, apperrors.CodeAuthorization) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeAuthorization)
	}
}

func TestApprove_AlreadyReviewed(t *testing.T) {
	svc, mock := newLifecycleService(t)
	expectRoleNames(mock, 3, "ADMIN")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM resources").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REJECTED"))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), 3, 42, nil)
	if !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeInvalidState)
	}
}

func TestApprove_ResourceMissing(t *testing.T) {
	svc, mock := newLifecycleService(t)
	expectRoleNames(mock, 3, "ADMIN")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM resources").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), 3, 404, nil)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	svc, mock := newLifecycleService(t)

	_, err := svc.Reject(context.Background(), 3, 42, "   ")
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeValidation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReject_CarriesReasonIntoAudit(t *testing.T) {
	svc, mock := newLifecycleService(t)
	expectRoleNames(mock, 3, "ADMIN")

	reason := "copyright violation"
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("REJECTED", nil, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_log").
		WithArgs(int64(3), int64(42), "REJECTED", &reason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(resourceTestCols).
			AddRow(int64(42), int64(5), "Calculus Notes", "", "files/calc.pdf", "REJECTED", time.Now(), nil))
	mock.ExpectCommit()

	resource, err := svc.Reject(context.Background(), 3, 42, reason)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if resource.Status != "REJECTED" {
		t.Errorf("Status = %s, want REJECTED", resource.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestResourceDelete_UploaderMayDelete(t *testing.T) {
	svc, mock := newLifecycleService(t)
	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(resourceTestCols).
			AddRow(int64(42), int64(5), "Notes", "", "files/n.pdf", "PENDING", now, nil))
	mock.ExpectExec("DELETE FROM resources").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Delete(context.Background(), Actor{UserID: 5, Role: "USER"}, 42); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestResourceDelete_StrangerForbidden(t *testing.T) {
	svc, mock := newLifecycleService(t)
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(resourceTestCols).
			AddRow(int64(42), int64(5), "Notes", "", "files/n.pdf", "PENDING", time.Now(), nil))

	err := svc.Delete(context.Background(), Actor{UserID: 6, Role: "USER"}, 42)
	if !apperrors.IsCode(err, apperrors.CodeAuthorization) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeAuthorization)
	}
}

func TestResourceDelete_AdminMayDeleteAnything(t *testing.T) {
	svc, mock := newLifecycleService(t)
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(resourceTestCols).
			AddRow(int64(42), int64(5), "Notes", "", "files/n.pdf", "APPROVED", time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM resources").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Delete(context.Background(), Actor{UserID: 1, Role: "ADMIN"}, 42); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
