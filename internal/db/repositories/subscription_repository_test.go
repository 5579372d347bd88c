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

var subscriptionCols = []string{"id", "user_id", "type", "start_date", "end_date", "download_limit", "created_at"}

func newSubscriptionRepo(t *testing.T) (*SubscriptionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestSubscriptionActiveForUser(t *testing.T) {
	repo, mock := newSubscriptionRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM subscriptions.*start_date.*end_date").
		WithArgs(int64(7), now).
		WillReturnRows(sqlmock.NewRows(subscriptionCols).
			AddRow(int64(1), int64(7), "MONTHLY", now.AddDate(0, 0, -10), now.AddDate(0, 0, 20), 100, now))

	sub, err := repo.ActiveForUser(context.Background(), 7, now)
	if err != nil {
		t.Fatalf("ActiveForUser: %v", err)
	}
	if sub.Type != models.SubscriptionMonthly {
		t.Errorf("Type = %s, want MONTHLY", sub.Type)
	}
	if sub.DownloadLimit != 100 {
		t.Errorf("DownloadLimit = %d, want 100", sub.DownloadLimit)
	}
}

func TestSubscriptionActiveForUser_NoneActive(t *testing.T) {
	repo, mock := newSubscriptionRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM subscriptions").
		WithArgs(int64(7), now).
		WillReturnRows(sqlmock.NewRows(subscriptionCols))

	if _, err := repo.ActiveForUser(context.Background(), 7, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionListExpiringBetween(t *testing.T) {
	repo, mock := newSubscriptionRepo(t)
	now := time.Now()
	cutoff := now.AddDate(0, 0, 7)
	mock.ExpectQuery("SELECT.*FROM subscriptions.*end_date >=.*end_date <=").
		WithArgs(now, cutoff).
		WillReturnRows(sqlmock.NewRows(subscriptionCols).
			AddRow(int64(1), int64(7), "MONTHLY", now.AddDate(0, -1, 0), now.AddDate(0, 0, 3), 100, now).
			AddRow(int64(2), int64(9), "YEARLY", now.AddDate(-1, 0, 0), now.AddDate(0, 0, 6), 1000, now))

	subs, err := repo.ListExpiringBetween(context.Background(), now, cutoff)
	if err != nil {
		t.Fatalf("ListExpiringBetween: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
}

func newDownloadRepo(t *testing.T) (*DownloadLogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDownloadLogRepository(db), mock
}

func TestDownloadCountForUserSince(t *testing.T) {
	repo, mock := newDownloadRepo(t)
	since := time.Now().AddDate(0, 0, -30)
	mock.ExpectQuery("SELECT COUNT.*FROM download_log").
		WithArgs(int64(7), since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	count, err := repo.CountForUserSince(context.Background(), 7, since)
	if err != nil {
		t.Fatalf("CountForUserSince: %v", err)
	}
	if count != 9 {
		t.Errorf("count = %d, want 9", count)
	}
}
