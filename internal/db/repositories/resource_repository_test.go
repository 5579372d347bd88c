package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/db/models"
)

var resourceCols = []string{"id", "uploader_id", "title", "description", "file_url", "status", "created_at", "approved_at"}

func pendingResourceRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows(resourceCols).
		AddRow(id, int64(7), "Algebra Notes", "chapter 1", "s3://bucket/algebra.pdf", "PENDING", time.Now(), nil)
}

func approvedResourceRow(id int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(resourceCols).
		AddRow(id, int64(7), "Algebra Notes", "chapter 1", "s3://bucket/algebra.pdf", "APPROVED", now, now)
}

func newResourceRepo(t *testing.T) (*ResourceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewResourceRepository(sqlx.NewDb(db, "postgres")), mock
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestResourceCreate(t *testing.T) {
	repo, mock := newResourceRepo(t)
	created := time.Now()
	mock.ExpectQuery("INSERT INTO resources").
		WithArgs(int64(7), "Algebra Notes", "chapter 1", "s3://bucket/algebra.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).
			AddRow(int64(42), "PENDING", created))

	resource := &models.Resource{
		UploaderID:  7,
		Title:       "Algebra Notes",
		Description: "chapter 1",
		FileURL:     "s3://bucket/algebra.pdf",
	}
	if err := repo.Create(context.Background(), resource); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resource.ID != 42 {
		t.Errorf("ID = %d, want 42", resource.ID)
	}
	if resource.Status != models.ResourceStatusPending {
		t.Errorf("Status = %s, want PENDING", resource.Status)
	}
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestResourceGetByID_NotFound(t *testing.T) {
	repo, mock := newResourceRepo(t)
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(resourceCols))

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func TestTransition_ApproveWinner(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_log").
		WithArgs(int64(3), int64(42), "APPROVED", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(approvedResourceRow(42))
	mock.ExpectCommit()

	resource, err := repo.Transition(context.Background(), 42, 3, models.ResourceStatusApproved, nil)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if resource.Status != models.ResourceStatusApproved {
		t.Errorf("Status = %s, want APPROVED", resource.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransition_RejectCarriesReason(t *testing.T) {
	repo, mock := newResourceRepo(t)
	reason := "copyrighted material"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("REJECTED", nil, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_log").
		WithArgs(int64(3), int64(42), "REJECTED", &reason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT.*FROM resources WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(resourceCols).
			AddRow(int64(42), int64(7), "Algebra Notes", "chapter 1", "s3://bucket/algebra.pdf", "REJECTED", time.Now(), nil))
	mock.ExpectCommit()

	resource, err := repo.Transition(context.Background(), 42, 3, models.ResourceStatusRejected, &reason)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if resource.ApprovedAt != nil {
		t.Error("rejected resource must not carry an approval timestamp")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransition_AlreadyReviewed(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM resources").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REJECTED"))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), 42, 3, models.ResourceStatusApproved, nil)
	if !errors.Is(err, ErrNotPending) {
		t.Errorf("error = %v, want ErrNotPending", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransition_ResourceMissing(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM resources").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), 999, 3, models.ResourceStatusApproved, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTransition_AuditInsertFailureRollsBack(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resources").
		WithArgs("APPROVED", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_log").
		WillReturnError(errDB)
	mock.ExpectRollback()

	if _, err := repo.Transition(context.Background(), 42, 3, models.ResourceStatusApproved, nil); err == nil {
		t.Fatal("expected error when audit insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestResourceDelete_NotFound(t *testing.T) {
	repo, mock := newResourceRepo(t)
	mock.ExpectExec("DELETE FROM resources").
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestResourceListByStatus_OldestFirst(t *testing.T) {
	repo, mock := newResourceRepo(t)
	mock.ExpectQuery("SELECT.*FROM resources WHERE status.*ORDER BY created_at").
		WithArgs("PENDING").
		WillReturnRows(pendingResourceRow(1))

	list, err := repo.ListByStatus(context.Background(), models.ResourceStatusPending)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
}
