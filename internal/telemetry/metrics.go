// Package telemetry wires structured logging and Prometheus metrics.
// Metrics are served on a dedicated side port (not the public API listener)
// so the scrape path stays off the ingress and bypasses rate limiting.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal uses the Gin route template (e.g. /api/resources/:id),
// NOT the raw URL, to prevent unbounded label cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Domain metrics.
//
// ResourceTransitionsTotal counts committed lifecycle transitions by resulting
// status ("APPROVED" or "REJECTED"). Failed or lost-race attempts are not
// counted; the counter tracks actual state changes, matching the audit trail
// row count.
//
// Example PromQL queries:
//   - Approval rate:      sum(rate(resource_transitions_total{status="APPROVED"}[1h]))
//   - Rejection ratio:    sum(rate(resource_transitions_total{status="REJECTED"}[1d])) / sum(rate(resource_transitions_total[1d]))
var (
	ResourceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_transitions_total",
			Help: "Total number of committed resource lifecycle transitions, by resulting status.",
		},
		[]string{"status"},
	)

	ResourceUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_uploads_total",
			Help: "Total number of resources submitted for review.",
		},
	)

	ResourceDownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_downloads_total",
			Help: "Total number of recorded resource downloads.",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts, by outcome (success or failure).",
		},
		[]string{"outcome"},
	)
)

// SubscriptionsExpiringSoon tracks how many subscriptions end within the
// configured warning window, refreshed on every expiry notifier pass.
var SubscriptionsExpiringSoon = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "subscriptions_expiring_soon",
		Help: "Number of subscriptions ending within the expiry warning window.",
	},
)

// DBOpenConnections tracks the number of open connections currently held by
// the sql.DB pool. It is sampled every 30 seconds by StartDBStatsCollector
// rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates DBOpenConnections.
// The goroutine exits when the database becomes unreachable, which happens
// automatically when the application shuts down and closes the pool.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
