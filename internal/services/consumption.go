// consumption.go implements downloads and ratings. Both act only on APPROVED
// resources; downloads additionally consume subscription quota. The quota
// window is the active subscription's date range, or a rolling free-tier
// window when the user has no active subscription.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/resource-share/resource-share/internal/apperrors"
	"github.com/resource-share/resource-share/internal/db/models"
	"github.com/resource-share/resource-share/internal/db/repositories"
	"github.com/resource-share/resource-share/internal/telemetry"
)

// ConsumptionService handles downloads and ratings of approved resources.
type ConsumptionService struct {
	resources      *repositories.ResourceRepository
	downloads      *repositories.DownloadLogRepository
	ratings        *repositories.RatingRepository
	subscriptions  *repositories.SubscriptionRepository
	freeLimit      int
	freeWindowDays int
}

// NewConsumptionService creates a ConsumptionService.
func NewConsumptionService(
	resources *repositories.ResourceRepository,
	downloads *repositories.DownloadLogRepository,
	ratings *repositories.RatingRepository,
	subscriptions *repositories.SubscriptionRepository,
	freeLimit, freeWindowDays int,
) *ConsumptionService {
	return &ConsumptionService{
		resources:      resources,
		downloads:      downloads,
		ratings:        ratings,
		subscriptions:  subscriptions,
		freeLimit:      freeLimit,
		freeWindowDays: freeWindowDays,
	}
}

func (s *ConsumptionService) approvedResource(ctx context.Context, resourceID int64) (*models.Resource, error) {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("resources", "resource not found")
	}
	if err != nil {
		return nil, apperrors.Internal("resources", err)
	}
	if resource.Status != models.ResourceStatusApproved {
		return nil, apperrors.InvalidState("resources", "resource is not approved")
	}
	return resource, nil
}

// Download records a consumption event for an approved resource and returns
// the resource so the caller can hand out its file reference. The download
// quota is checked first: the active subscription's limit over its date
// range, or the free-tier limit over a rolling window.
func (s *ConsumptionService) Download(ctx context.Context, userID, resourceID int64) (*models.Resource, error) {
	resource, err := s.approvedResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	limit := s.freeLimit
	windowStart := now.AddDate(0, 0, -s.freeWindowDays)

	sub, err := s.subscriptions.ActiveForUser(ctx, userID, now)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		// Free tier applies.
	case err != nil:
		return nil, apperrors.Internal("downloads", err)
	default:
		limit = sub.DownloadLimit
		windowStart = sub.StartDate
	}

	used, err := s.downloads.CountForUserSince(ctx, userID, windowStart)
	if err != nil {
		return nil, apperrors.Internal("downloads", err)
	}
	if used >= limit {
		return nil, apperrors.Authorization("downloads",
			fmt.Sprintf("download limit of %d reached", limit))
	}

	entry := &models.DownloadLog{UserID: userID, ResourceID: resourceID}
	if err := s.downloads.Create(ctx, entry); err != nil {
		return nil, apperrors.Internal("downloads", err)
	}

	telemetry.ResourceDownloadsTotal.Inc()
	slog.Info("resource downloaded", "resource_id", resourceID, "user_id", userID)
	return resource, nil
}

// Rate records a user's rating for an approved resource. A user rates a
// given resource at most once.
func (s *ConsumptionService) Rate(ctx context.Context, userID, resourceID int64, value int) (*models.Rating, error) {
	if value < models.RatingMin || value > models.RatingMax {
		return nil, apperrors.Validation("ratings",
			fmt.Sprintf("rating must be between %d and %d", models.RatingMin, models.RatingMax))
	}

	if _, err := s.approvedResource(ctx, resourceID); err != nil {
		return nil, err
	}

	rating := &models.Rating{ResourceID: resourceID, UserID: userID, RatingValue: value}
	if err := s.ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("ratings", "resource already rated by this user")
		}
		return nil, apperrors.Internal("ratings", err)
	}
	return rating, nil
}

// RatingsFor returns a resource's ratings plus their mean.
func (s *ConsumptionService) RatingsFor(ctx context.Context, resourceID int64) ([]models.Rating, float64, error) {
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, apperrors.NotFound("resources", "resource not found")
		}
		return nil, 0, apperrors.Internal("ratings", err)
	}

	ratings, err := s.ratings.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, 0, apperrors.Internal("ratings", err)
	}
	average, _, err := s.ratings.AverageForResource(ctx, resourceID)
	if err != nil {
		return nil, 0, apperrors.Internal("ratings", err)
	}
	return ratings, average, nil
}

// Downloads returns a user's download history.
func (s *ConsumptionService) Downloads(ctx context.Context, userID int64) ([]models.DownloadLog, error) {
	entries, err := s.downloads.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("downloads", err)
	}
	return entries, nil
}
