// Package billing implements HTTP handlers for subscriptions and the
// payment ledger.
package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/db/models"
	"github.com/resource-share/resource-share/internal/middleware"
	"github.com/resource-share/resource-share/internal/services"
)

// Handlers handles subscription and payment endpoints.
type Handlers struct {
	billing *services.BillingService
}

// NewHandlers creates a new billing Handlers instance.
func NewHandlers(billing *services.BillingService) *Handlers {
	return &Handlers{billing: billing}
}

type createSubscriptionRequest struct {
	Type          string    `json:"type"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	DownloadLimit int       `json:"downloadLimit"`
}

// CreateSubscriptionHandler opens a subscription for the caller.
// POST /api/subscriptions
func (h *Handlers) CreateSubscriptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("billing", "authentication required"))
			return
		}

		var req createSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("billing", "invalid request body"))
			return
		}

		sub, err := h.billing.CreateSubscription(c.Request.Context(), &models.Subscription{
			UserID:        actor.UserID,
			Type:          models.SubscriptionType(req.Type),
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			DownloadLimit: req.DownloadLimit,
		})
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, sub)
	}
}

// ListSubscriptionsHandler lists the caller's subscriptions, newest first.
// GET /api/subscriptions
func (h *Handlers) ListSubscriptionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("billing", "authentication required"))
			return
		}

		subs, err := h.billing.Subscriptions(c.Request.Context(), actor.UserID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, subs)
	}
}

// ActiveSubscriptionHandler returns the caller's currently active
// subscription, or 404 when no window covers now.
// GET /api/subscriptions/active
func (h *Handlers) ActiveSubscriptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("billing", "authentication required"))
			return
		}

		sub, err := h.billing.ActiveSubscription(c.Request.Context(), actor.UserID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

type recordPaymentRequest struct {
	SubscriptionID *int64 `json:"subscriptionId"`
	Amount         string `json:"amount"`
	PaymentMethod  string `json:"paymentMethod"`
	Status         string `json:"status"`
}

// RecordPaymentHandler appends a payment to the caller's ledger.
// POST /api/payments
func (h *Handlers) RecordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("billing", "authentication required"))
			return
		}

		var req recordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("billing", "invalid request body"))
			return
		}

		payment, err := h.billing.RecordPayment(c.Request.Context(), &models.Payment{
			UserID:         actor.UserID,
			SubscriptionID: req.SubscriptionID,
			Amount:         req.Amount,
			PaymentMethod:  req.PaymentMethod,
			Status:         models.PaymentStatus(req.Status),
		})
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

// ListPaymentsHandler lists the caller's payments, newest first.
// GET /api/payments
func (h *Handlers) ListPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("billing", "authentication required"))
			return
		}

		payments, err := h.billing.Payments(c.Request.Context(), actor.UserID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}
