// subscription.go defines subscription tiers. A subscription grants a download
// quota for a date range; downloads outside any active subscription fall back
// to the free-tier quota.
package models

import "time"

// SubscriptionType is the billing tier of a subscription.
type SubscriptionType string

const (
	SubscriptionFree    SubscriptionType = "FREE"
	SubscriptionMonthly SubscriptionType = "MONTHLY"
	SubscriptionYearly  SubscriptionType = "YEARLY"
)

// Valid reports whether t is a known tier.
func (t SubscriptionType) Valid() bool {
	switch t {
	case SubscriptionFree, SubscriptionMonthly, SubscriptionYearly:
		return true
	}
	return false
}

// Subscription grants DownloadLimit downloads between StartDate and EndDate.
type Subscription struct {
	ID            int64            `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"userId"`
	Type          SubscriptionType `db:"type" json:"type"`
	StartDate     time.Time        `db:"start_date" json:"startDate"`
	EndDate       time.Time        `db:"end_date" json:"endDate"`
	DownloadLimit int              `db:"download_limit" json:"downloadLimit"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}

// ActiveAt reports whether the subscription window covers t.
func (s *Subscription) ActiveAt(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}
