// Package jobs contains background loops started alongside the HTTP server.
//
// subscription_expiry.go implements SubscriptionExpiryNotifier, which
// periodically scans for subscriptions approaching their end date and emits a
// structured warning per affected subscription. Warnings go to the log
// pipeline rather than email so operators can route them through whatever
// alerting their deployment already has. The job is a no-op when
// notifications.enabled is false, so it is always safe to start regardless of
// deployment environment.
package jobs

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/resource-share/resource-share/internal/config"
	"github.com/resource-share/resource-share/internal/db/repositories"
	"github.com/resource-share/resource-share/internal/telemetry"
)

// SubscriptionExpiryNotifier periodically warns about subscriptions that are
// about to expire.
type SubscriptionExpiryNotifier struct {
	subscriptions *repositories.SubscriptionRepository
	cfg           *config.NotificationsConfig
	interval      time.Duration
	stopChan      chan struct{}
}

// NewSubscriptionExpiryNotifier creates a new SubscriptionExpiryNotifier.
// The check interval comes from notifications.expiry_check_interval_hours
// (default 24h).
func NewSubscriptionExpiryNotifier(
	subscriptions *repositories.SubscriptionRepository,
	cfg *config.NotificationsConfig,
) *SubscriptionExpiryNotifier {
	hours := cfg.ExpiryCheckIntervalHours
	if hours <= 0 {
		hours = 24
	}
	return &SubscriptionExpiryNotifier{
		subscriptions: subscriptions,
		cfg:           cfg,
		interval:      time.Duration(hours) * time.Hour,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the background expiry-warning loop.
// It runs an initial check immediately, then repeats on the configured
// interval. The loop exits when ctx is cancelled or Stop() is called.
func (n *SubscriptionExpiryNotifier) Start(ctx context.Context) {
	if !n.cfg.Enabled {
		log.Println("Subscription expiry notifier: disabled (notifications.enabled=false)")
		return
	}

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	log.Printf("Subscription expiry notifier started (check interval: %v, warning window: %d days)",
		n.interval, n.warningDays())

	// Run once immediately on startup
	n.runCheck(ctx)

	for {
		select {
		case <-ticker.C:
			n.runCheck(ctx)
		case <-n.stopChan:
			log.Println("Subscription expiry notifier stopped")
			return
		case <-ctx.Done():
			log.Println("Subscription expiry notifier context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (n *SubscriptionExpiryNotifier) Stop() {
	select {
	case <-n.stopChan:
		// already closed
	default:
		close(n.stopChan)
	}
}

func (n *SubscriptionExpiryNotifier) warningDays() int {
	if n.cfg.ExpiryWarningDays <= 0 {
		return 7
	}
	return n.cfg.ExpiryWarningDays
}

// runCheck performs a single scan and emits one warning per subscription
// ending within the warning window.
func (n *SubscriptionExpiryNotifier) runCheck(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, n.warningDays())

	expiring, err := n.subscriptions.ListExpiringBetween(ctx, now, cutoff)
	if err != nil {
		slog.Error("subscription expiry check failed", "error", err)
		return
	}

	telemetry.SubscriptionsExpiringSoon.Set(float64(len(expiring)))

	for _, sub := range expiring {
		slog.Warn("subscription expiring soon",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"type", sub.Type,
			"end_date", sub.EndDate.Format(time.RFC3339),
			"days_left", int(time.Until(sub.EndDate).Hours()/24),
		)
	}
}
