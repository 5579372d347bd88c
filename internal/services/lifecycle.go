// Package services holds the business logic between the HTTP handlers and the
// repositories. The lifecycle service in this file owns every resource status
// transition: nothing else in the application writes resources.status or
// approval_log, so the state machine invariants can be read off this one file.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/audit"
	"github.com/resource-share/resource-share/internal/db/models"
	"github.com/resource-share/resource-share/internal/db/repositories"
	"github.com/resource-share/resource-share/internal/safego"
	"github.com/resource-share/resource-share/internal/telemetry"
	"github.com/resource-share/resource-share/internal/validation"
)

// Actor is the authenticated identity performing an operation, as resolved by
// the access gate from the session token.
type Actor struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// LifecycleService owns the PENDING → APPROVED/REJECTED state machine.
type LifecycleService struct {
	resources *repositories.ResourceRepository
	approvals *repositories.ApprovalLogRepository
	roles     *repositories.RoleRepository
	audit     audit.Shipper
}

// NewLifecycleService creates a LifecycleService.
func NewLifecycleService(
	resources *repositories.ResourceRepository,
	approvals *repositories.ApprovalLogRepository,
	roles *repositories.RoleRepository,
) *LifecycleService {
	return &LifecycleService{
		resources: resources,
		approvals: approvals,
		roles:     roles,
		audit:     audit.Nop{},
	}
}

// SetAuditShipper routes moderation decisions to an external audit
// destination in addition to the approval_log table.
func (s *LifecycleService) SetAuditShipper(shipper audit.Shipper) {
	s.audit = shipper
}

// Submit creates a resource in the PENDING state on behalf of the uploader.
func (s *LifecycleService) Submit(ctx context.Context, uploaderID int64, title, description, fileURL string) (*models.Resource, error) {
	if err := validation.ValidateTitle(title); err != nil {
		return nil, apperrors.Validation("resources", err.Error())
	}
	if err := validation.ValidateFileURL(fileURL); err != nil {
		return nil, apperrors.Validation("resources", err.Error())
	}

	resource := &models.Resource{
		UploaderID:  uploaderID,
		Title:       strings.TrimSpace(title),
		Description: description,
		FileURL:     fileURL,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, apperrors.Internal("resources", err)
	}

	telemetry.ResourceUploadsTotal.Inc()
	slog.Info("resource submitted", "resource_id", resource.ID, "uploader_id", uploaderID)
	return resource, nil
}

// Approve moves a PENDING resource to APPROVED and records the audit row.
// The administrator role is re-checked against the role store rather than
// trusted from the token, so a revoked admin cannot keep approving until
// their token expires.
func (s *LifecycleService) Approve(ctx context.Context, adminID, resourceID int64, reason *string) (*models.Resource, error) {
	return s.transition(ctx, adminID, resourceID, models.ResourceStatusApproved, reason)
}

// Reject moves a PENDING resource to REJECTED. A reason is mandatory: the
// uploader is told why, and the audit row must carry it.
func (s *LifecycleService) Reject(ctx context.Context, adminID, resourceID int64, reason string) (*models.Resource, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("resources", "a rejection reason is required")
	}
	return s.transition(ctx, adminID, resourceID, models.ResourceStatusRejected, &reason)
}

func (s *LifecycleService) transition(ctx context.Context, adminID, resourceID int64, status models.ResourceStatus, reason *string) (*models.Resource, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	resource, err := s.resources.Transition(ctx, resourceID, adminID, status, reason)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, apperrors.NotFound("resources", "resource not found")
	case errors.Is(err, repositories.ErrNotPending):
		return nil, apperrors.InvalidState("resources", "resource has already been reviewed")
	case err != nil:
		return nil, apperrors.Internal("resources", err)
	}

	telemetry.ResourceTransitionsTotal.WithLabelValues(string(status)).Inc()
	slog.Info("resource transitioned",
		"resource_id", resourceID, "status", status, "admin_id", adminID)

	// The approval_log row is already committed; external shipping happens
	// off the request path.
	event := &audit.Event{
		Timestamp:  time.Now().UTC(),
		Action:     audit.ActionResourceApprove,
		ActorID:    adminID,
		ResourceID: resourceID,
		Status:     string(status),
	}
	if status == models.ResourceStatusRejected {
		event.Action = audit.ActionResourceReject
	}
	if reason != nil {
		event.Reason = *reason
	}
	shipper := s.audit
	safego.Go(func() {
		if err := shipper.Ship(context.Background(), event); err != nil {
			slog.Warn("audit shipping failed", "action", event.Action, "error", err)
		}
	})

	return resource, nil
}

func (s *LifecycleService) requireAdmin(ctx context.Context, userID int64) error {
	names, err := s.roles.NamesForUser(ctx, userID)
	if err != nil {
		return apperrors.Internal("resources", err)
	}
	if models.EffectiveRole(names) != models.RoleAdmin {
		return apperrors.Authorization("resources", "administrator role required")
	}
	return nil
}

// Get retrieves a single resource.
func (s *LifecycleService) Get(ctx context.Context, resourceID int64) (*models.Resource, error) {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("resources", "resource not found")
	}
	if err != nil {
		return nil, apperrors.Internal("resources", err)
	}
	return resource, nil
}

// List returns all resources.
func (s *LifecycleService) List(ctx context.Context) ([]models.Resource, error) {
	resources, err := s.resources.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("resources", err)
	}
	return resources, nil
}

// ListByUploader returns the resources submitted by one user.
func (s *LifecycleService) ListByUploader(ctx context.Context, uploaderID int64) ([]models.Resource, error) {
	resources, err := s.resources.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, apperrors.Internal("resources", err)
	}
	return resources, nil
}

// ListPending returns the admin review queue in submission order.
func (s *LifecycleService) ListPending(ctx context.Context) ([]models.Resource, error) {
	resources, err := s.resources.ListByStatus(ctx, models.ResourceStatusPending)
	if err != nil {
		return nil, apperrors.Internal("resources", err)
	}
	return resources, nil
}

// History returns the audit trail for a resource in action order.
func (s *LifecycleService) History(ctx context.Context, resourceID int64) ([]models.ApprovalLog, error) {
	entries, err := s.approvals.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, apperrors.Internal("resources", err)
	}
	return entries, nil
}

// Delete removes a resource. Only the uploader or an administrator may
// delete; dependent ratings and download log rows cascade, while approval
// audit rows are retained.
func (s *LifecycleService) Delete(ctx context.Context, actor Actor, resourceID int64) error {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("resources", "resource not found")
	}
	if err != nil {
		return apperrors.Internal("resources", err)
	}

	if resource.UploaderID != actor.UserID && !actor.IsAdmin() {
		return apperrors.Authorization("resources", "only the uploader or an administrator may delete a resource")
	}

	if err := s.resources.Delete(ctx, resourceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("resources", "resource not found")
		}
		return apperrors.Internal("resources", err)
	}

	slog.Info("resource deleted", "resource_id", resourceID, "actor_id", actor.UserID)
	return nil
}
