// Package api wires together all HTTP routes for the resource sharing backend.
//
// Route grouping philosophy:
//   - Registration, login, and the forgot-password probe are public so that a
//     user can obtain an account and a token without prior credentials. They
//     sit behind a stricter rate limiter because they are the brute-force
//     surface.
//   - Catalog and directory reads (resource listing/detail, user
//     listing/detail) are public: the catalog is browsable without an
//     account.
//   - Every mutation requires a valid session token. Moderation endpoints
//     additionally require the ADMIN role, resolved from role assignments at
//     request time rather than trusted from the token alone.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/resource-share/resource-share/internal/api/billing"
	"github.com/resource-share/resource-share/internal/api/resources"
	"github.com/resource-share/resource-share/internal/api/users"
	"github.com/resource-share/resource-share/internal/audit"
	"github.com/resource-share/resource-share/internal/auth"
	"github.com/resource-share/resource-share/internal/config"
	"github.com/resource-share/resource-share/internal/db/repositories"
	"github.com/resource-share/resource-share/internal/jobs"
	"github.com/resource-share/resource-share/internal/middleware"
	"github.com/resource-share/resource-share/internal/safego"
	"github.com/resource-share/resource-share/internal/services"
)

// BackgroundServices holds background jobs and resources that must be stopped
// during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	expiryNotifier *jobs.SubscriptionExpiryNotifier
	auditShipper   audit.Shipper
	rateLimiters   []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.expiryNotifier != nil {
		bg.expiryNotifier.Stop()
	}
	if bg.auditShipper != nil {
		if err := bg.auditShipper.Close(); err != nil {
			slog.Warn("closing audit shipper", "error", err)
		}
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// buildAuditShipper assembles the audit export pipeline from configuration.
// Returns a no-op shipper when auditing is disabled or no destination is set.
func buildAuditShipper(cfg *config.Config) audit.Shipper {
	if !cfg.Audit.Enabled {
		return audit.Nop{}
	}

	var configs []audit.ShipperConfig
	if cfg.Audit.FilePath != "" {
		configs = append(configs, audit.ShipperConfig{
			Enabled: true,
			Type:    "file",
			File: &audit.FileConfig{
				Path:       cfg.Audit.FilePath,
				MaxSizeMB:  cfg.Audit.FileMaxSizeMB,
				MaxBackups: cfg.Audit.FileMaxBackups,
			},
		})
	}
	if cfg.Audit.WebhookURL != "" {
		configs = append(configs, audit.ShipperConfig{
			Enabled: true,
			Type:    "webhook",
			Webhook: &audit.WebhookConfig{URL: cfg.Audit.WebhookURL},
		})
	}
	if len(configs) == 0 {
		return audit.Nop{}
	}

	shipper, err := audit.NewMultiShipper(configs)
	if err != nil {
		slog.Error("audit shipper initialization failed, auditing disabled", "error", err)
		return audit.Nop{}
	}
	return shipper
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, conn *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(conn)
	roleRepo := repositories.NewRoleRepository(conn)
	ratingRepo := repositories.NewRatingRepository(conn)
	downloadRepo := repositories.NewDownloadLogRepository(conn)

	// Wrap *sql.DB with sqlx for the repositories that need named queries
	// and transactions
	sqlxDB := sqlx.NewDb(conn, "postgres")
	resourceRepo := repositories.NewResourceRepository(sqlxDB)
	approvalRepo := repositories.NewApprovalLogRepository(sqlxDB)
	subscriptionRepo := repositories.NewSubscriptionRepository(sqlxDB)
	paymentRepo := repositories.NewPaymentRepository(sqlxDB)

	// Initialize services
	hasher := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)
	accountsService := services.NewAccountsService(userRepo, roleRepo, approvalRepo, hasher, cfg.Auth.TokenTTL)
	lifecycleService := services.NewLifecycleService(resourceRepo, approvalRepo, roleRepo)
	consumptionService := services.NewConsumptionService(
		resourceRepo, downloadRepo, ratingRepo, subscriptionRepo,
		cfg.Downloads.FreeLimit, cfg.Downloads.FreeWindowDays,
	)
	billingService := services.NewBillingService(subscriptionRepo, paymentRepo)

	// Route security-relevant events to the configured audit destinations
	auditShipper := buildAuditShipper(cfg)
	accountsService.SetAuditShipper(auditShipper)
	lifecycleService.SetAuditShipper(auditShipper)

	// Start the subscription expiry notifier
	expiryNotifier := jobs.NewSubscriptionExpiryNotifier(subscriptionRepo, &cfg.Notifications)
	safego.Go(func() { expiryNotifier.Start(context.Background()) })

	// Initialize handlers
	userHandlers := users.NewHandlers(accountsService)
	resourceHandlers := resources.NewHandlers(lifecycleService, consumptionService)
	billingHandlers := billing.NewHandlers(billingService)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))

	// Health and readiness probes
	router.GET("/health", healthCheckHandler(conn))
	router.GET("/ready", readinessHandler(conn))
	router.GET("/version", versionHandler())

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(generalRateLimitConfig(cfg))

	authRequired := middleware.AuthMiddleware(accountsService)

	// User endpoints. Registration, login, and the forgot-password probe are
	// public; profile management requires the caller to act on their own
	// account unless they are an admin.
	usersGroup := router.Group("/api/users")
	usersGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	{
		usersGroup.POST("/new",
			middleware.RateLimitMiddleware(authRateLimiter),
			userHandlers.RegisterHandler())
		usersGroup.POST("/login",
			middleware.RateLimitMiddleware(authRateLimiter),
			userHandlers.LoginHandler())
		usersGroup.POST("/forgot",
			middleware.RateLimitMiddleware(authRateLimiter),
			userHandlers.ForgotHandler())

		usersGroup.GET("", userHandlers.ListHandler())
		usersGroup.GET("/:id", userHandlers.GetHandler())
		usersGroup.PUT("/update/:id",
			authRequired,
			middleware.RequireSelfOrAdmin("id"),
			userHandlers.UpdateHandler())
		usersGroup.DELETE("/drop/:id",
			authRequired,
			middleware.RequireSelfOrAdmin("id"),
			userHandlers.DeleteHandler())
		usersGroup.POST("/:id/roles",
			authRequired,
			middleware.RequireAdmin(),
			userHandlers.AssignRoleHandler())
	}

	// Role administration
	rolesGroup := router.Group("/api/roles")
	rolesGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	rolesGroup.Use(authRequired, middleware.RequireAdmin())
	{
		rolesGroup.GET("", userHandlers.ListRolesHandler())
		rolesGroup.POST("", userHandlers.CreateRoleHandler())
	}

	// Resource catalog. Listing and detail reads are public; submissions,
	// downloads, and ratings need a session; moderation is admin only.
	resourcesGroup := router.Group("/api/resources")
	resourcesGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	{
		resourcesGroup.GET("", resourceHandlers.ListHandler())
		resourcesGroup.POST("", authRequired, resourceHandlers.CreateHandler())
		resourcesGroup.GET("/mine", authRequired, resourceHandlers.MineHandler())
		resourcesGroup.GET("/pending",
			authRequired,
			middleware.RequireAdmin(),
			resourceHandlers.PendingHandler())
		resourcesGroup.GET("/:id", resourceHandlers.GetHandler())
		resourcesGroup.DELETE("/:id", authRequired, resourceHandlers.DeleteHandler())
		resourcesGroup.PUT("/:id/approve",
			authRequired,
			middleware.RequireAdmin(),
			resourceHandlers.ApproveHandler())
		resourcesGroup.PUT("/:id/reject",
			authRequired,
			middleware.RequireAdmin(),
			resourceHandlers.RejectHandler())
		resourcesGroup.GET("/:id/history",
			authRequired,
			middleware.RequireAdmin(),
			resourceHandlers.HistoryHandler())
		resourcesGroup.POST("/:id/download", authRequired, resourceHandlers.DownloadHandler())
		resourcesGroup.GET("/:id/ratings", resourceHandlers.RatingsHandler())
		resourcesGroup.POST("/:id/ratings", authRequired, resourceHandlers.RateHandler())
	}

	// Subscriptions and payments, always scoped to the caller
	subscriptionsGroup := router.Group("/api/subscriptions")
	subscriptionsGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	subscriptionsGroup.Use(authRequired)
	{
		subscriptionsGroup.GET("", billingHandlers.ListSubscriptionsHandler())
		subscriptionsGroup.POST("", billingHandlers.CreateSubscriptionHandler())
		subscriptionsGroup.GET("/active", billingHandlers.ActiveSubscriptionHandler())
	}

	paymentsGroup := router.Group("/api/payments")
	paymentsGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	paymentsGroup.Use(authRequired)
	{
		paymentsGroup.GET("", billingHandlers.ListPaymentsHandler())
		paymentsGroup.POST("", billingHandlers.RecordPaymentHandler())
	}

	bg := &BackgroundServices{
		expiryNotifier: expiryNotifier,
		auditShipper:   auditShipper,
		rateLimiters:   []*middleware.RateLimiter{authRateLimiter, generalRateLimiter},
	}

	return router, bg
}

// generalRateLimitConfig derives the general API limiter from configuration,
// falling back to the built-in default when rate limiting is not configured.
func generalRateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
		rl.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
	}
	if cfg.Security.RateLimiting.Burst > 0 {
		rl.BurstSize = cfg.Security.RateLimiting.Burst
	}
	return rl
}

// @Summary      Health check
// @Description  Returns the health status of the service. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(conn *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := conn.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. Unlike the
// liveness probe (/health), it runs a trivial query so that a readiness gate
// fails when the connection pool is exhausted or the schema is unreachable.
func readinessHandler(conn *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		var one int
		if err := conn.QueryRowContext(c.Request.Context(), "SELECT 1").Scan(&one); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
