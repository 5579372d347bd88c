// Package resources implements HTTP handlers for the resource catalog:
// upload, moderation, downloads, and ratings.
package resources

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/middleware"
	"github.com/resource-share/resource-share/internal/services"
)

// Handlers handles resource catalog endpoints.
type Handlers struct {
	lifecycle   *services.LifecycleService
	consumption *services.ConsumptionService
}

// NewHandlers creates a new resource Handlers instance.
func NewHandlers(lifecycle *services.LifecycleService, consumption *services.ConsumptionService) *Handlers {
	return &Handlers{lifecycle: lifecycle, consumption: consumption}
}

func resourceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("resources", "invalid resource id"))
		return 0, false
	}
	return id, true
}

// @Summary      List resources
// @Description  Get all resources regardless of status.
// @Tags         Resources
// @Produce      json
// @Success      200  {array}   models.Resource
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/resources [get]
// ListHandler lists every resource.
// GET /api/resources
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.lifecycle.List(c.Request.Context())
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetHandler retrieves a single resource by ID.
// GET /api/resources/:id
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c)
		if !ok {
			return
		}

		resource, err := h.lifecycle.Get(c.Request.Context(), id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, resource)
	}
}

type createResourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
}

// @Summary      Upload resource
// @Description  Submit a new resource. It enters the moderation queue as PENDING.
// @Tags         Resources
// @Accept       json
// @Produce      json
// @Param        body  body  createResourceRequest  true  "Resource fields"
// @Success      201  {object}  models.Resource
// @Failure      400  {object}  map[string]interface{}  "Invalid input"
// @Router       /api/resources [post]
// CreateHandler submits a new resource for moderation.
// POST /api/resources
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}

		var req createResourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("resources", "invalid request body"))
			return
		}

		resource, err := h.lifecycle.Submit(c.Request.Context(), actor.UserID, req.Title, req.Description, req.FileURL)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, resource)
	}
}

type decisionRequest struct {
	Reason *string `json:"reason"`
}

// @Summary      Approve resource
// @Description  Move a pending resource to APPROVED and record the decision. Admin only.
// @Tags         Resources
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Resource ID"
// @Success      200  {object}  models.Resource
// @Failure      404  {object}  map[string]interface{}  "Resource not found"
// @Failure      409  {object}  map[string]interface{}  "Resource is not pending"
// @Router       /api/resources/{id}/approve [put]
// ApproveHandler approves a pending resource.
// PUT /api/resources/:id/approve
func (h *Handlers) ApproveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}
		id, ok := resourceID(c)
		if !ok {
			return
		}

		var req decisionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				apperrors.Respond(c, apperrors.Validation("resources", "invalid request body"))
				return
			}
		}

		resource, err := h.lifecycle.Approve(c.Request.Context(), actor.UserID, id, req.Reason)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, resource)
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectHandler rejects a pending resource. A reason is required.
// PUT /api/resources/:id/reject
func (h *Handlers) RejectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}
		id, ok := resourceID(c)
		if !ok {
			return
		}

		var req rejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("resources", "invalid request body"))
			return
		}

		resource, err := h.lifecycle.Reject(c.Request.Context(), actor.UserID, id, req.Reason)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, resource)
	}
}

// PendingHandler lists resources awaiting moderation, oldest first. Admin only.
// GET /api/resources/pending
func (h *Handlers) PendingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.lifecycle.ListPending(c.Request.Context())
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// MineHandler lists the caller's own uploads in every status.
// GET /api/resources/mine
func (h *Handlers) MineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}

		list, err := h.lifecycle.ListByUploader(c.Request.Context(), actor.UserID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// HistoryHandler returns the moderation audit trail for a resource. Admin only.
// GET /api/resources/:id/history
func (h *Handlers) HistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c)
		if !ok {
			return
		}

		entries, err := h.lifecycle.History(c.Request.Context(), id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// DeleteHandler removes a resource. Owner or admin only.
// DELETE /api/resources/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}
		id, ok := resourceID(c)
		if !ok {
			return
		}

		if err := h.lifecycle.Delete(c.Request.Context(), actor, id); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary      Download resource
// @Description  Record a download of an approved resource, subject to the caller's quota.
// @Tags         Resources
// @Produce      json
// @Param        id  path  int  true  "Resource ID"
// @Success      200  {object}  map[string]interface{}  "fileUrl"
// @Failure      403  {object}  map[string]interface{}  "Download limit reached"
// @Failure      409  {object}  map[string]interface{}  "Resource is not approved"
// @Router       /api/resources/{id}/download [post]
// DownloadHandler records a download and returns the file location.
// POST /api/resources/:id/download
func (h *Handlers) DownloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}
		id, ok := resourceID(c)
		if !ok {
			return
		}

		resource, err := h.consumption.Download(c.Request.Context(), actor.UserID, id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"fileUrl": resource.FileURL})
	}
}

type rateRequest struct {
	Value int `json:"value"`
}

// RateHandler records a 1-5 rating on an approved resource. One per user.
// POST /api/resources/:id/ratings
func (h *Handlers) RateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			apperrors.Respond(c, apperrors.Authentication("resources", "authentication required"))
			return
		}
		id, ok := resourceID(c)
		if !ok {
			return
		}

		var req rateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Respond(c, apperrors.Validation("ratings", "invalid request body"))
			return
		}

		rating, err := h.consumption.Rate(c.Request.Context(), actor.UserID, id, req.Value)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, rating)
	}
}

// RatingsHandler lists a resource's ratings together with their average.
// GET /api/resources/:id/ratings
func (h *Handlers) RatingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c)
		if !ok {
			return
		}

		ratings, average, err := h.consumption.RatingsFor(c.Request.Context(), id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ratings": ratings,
			"average": average,
		})
	}
}
