// billing.go implements the subscription and payment ledgers. These are plain
// CRUD with field validation; no charging or settlement logic exists in this
// service.
package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/db/models"
	"github.com/resource-share/resource-share/internal/db/repositories"
)

// amountRe matches a non-negative decimal with at most two fraction digits,
// mirroring the NUMERIC(10,2) column.
var amountRe = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

// BillingService handles subscription and payment records.
type BillingService struct {
	subscriptions *repositories.SubscriptionRepository
	payments      *repositories.PaymentRepository
}

// NewBillingService creates a BillingService.
func NewBillingService(
	subscriptions *repositories.SubscriptionRepository,
	payments *repositories.PaymentRepository,
) *BillingService {
	return &BillingService{subscriptions: subscriptions, payments: payments}
}

// CreateSubscription records a subscription for a user.
func (s *BillingService) CreateSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if !sub.Type.Valid() {
		return nil, apperrors.Validation("subscriptions", "unknown subscription type")
	}
	if sub.EndDate.Before(sub.StartDate) {
		return nil, apperrors.Validation("subscriptions", "end date precedes start date")
	}
	if sub.DownloadLimit < 0 {
		return nil, apperrors.Validation("subscriptions", "download limit must not be negative")
	}

	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, apperrors.Internal("subscriptions", err)
	}
	return sub, nil
}

// Subscriptions returns a user's subscriptions.
func (s *BillingService) Subscriptions(ctx context.Context, userID int64) ([]models.Subscription, error) {
	subs, err := s.subscriptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("subscriptions", err)
	}
	return subs, nil
}

// ActiveSubscription returns the subscription covering now, if any.
func (s *BillingService) ActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	sub, err := s.subscriptions.ActiveForUser(ctx, userID, time.Now())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("subscriptions", "no active subscription")
	}
	if err != nil {
		return nil, apperrors.Internal("subscriptions", err)
	}
	return sub, nil
}

// RecordPayment appends a payment row.
func (s *BillingService) RecordPayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if !amountRe.MatchString(payment.Amount) {
		return nil, apperrors.Validation("payments", "amount must be a decimal with at most two fraction digits")
	}
	if payment.Status == "" {
		payment.Status = models.PaymentCompleted
	}
	if !payment.Status.Valid() {
		return nil, apperrors.Validation("payments", "unknown payment status")
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.Internal("payments", err)
	}
	return payment, nil
}

// Payments returns a user's payment history.
func (s *BillingService) Payments(ctx context.Context, userID int64) ([]models.Payment, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("payments", err)
	}
	return payments, nil
}
