// payment.go defines the payment ledger. Payments are plain records of money
// received against a subscription; no processing logic lives in this service.
package models

import "time"

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Payment records an amount paid by a user, optionally tied to a subscription.
// Amount is kept as a decimal string to avoid float rounding on money.
type Payment struct {
	ID             int64         `db:"id" json:"id"`
	UserID         int64         `db:"user_id" json:"userId"`
	SubscriptionID *int64        `db:"subscription_id" json:"subscriptionId,omitempty"`
	Amount         string        `db:"amount" json:"amount"`
	PaymentMethod  string        `db:"payment_method" json:"paymentMethod"`
	Status         PaymentStatus `db:"status" json:"status"`
	PaidAt         time.Time     `db:"paid_at" json:"paidAt"`
}
