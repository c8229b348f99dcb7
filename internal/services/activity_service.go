package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/utils"
	"fittrack/internal/validators"
	"fittrack/pkg/logger"
	"fittrack/pkg/queue"
)

// activitySortFields are the only columns the list endpoints may sort by.
var activitySortFields = []string{"created_at", "started_at", "distance_meters", "duration_seconds"}

// ActivityService manages manually entered activities. Recorded activities
// are created by the tracking service when a session finishes.
type ActivityService interface {
	Create(ctx context.Context, userID primitive.ObjectID, req *validators.ActivityCreateRequest) (*models.Activity, error)
	GetByID(ctx context.Context, id, viewerID primitive.ObjectID) (*models.Activity, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Activity, int64, error)
	ListPublic(ctx context.Context, params *utils.PaginationParams) ([]*models.Activity, int64, error)
	Update(ctx context.Context, id, userID primitive.ObjectID, req *validators.ActivityUpdateRequest) (*models.Activity, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

type activityService struct {
	activityRepo interfaces.ActivityRepository
	publisher    EventPublisher
	log          *logger.Logger
	now          func() time.Time
}

func NewActivityService(activityRepo interfaces.ActivityRepository, publisher EventPublisher, log *logger.Logger) ActivityService {
	return &activityService{
		activityRepo: activityRepo,
		publisher:    publisher,
		log:          log,
		now:          time.Now,
	}
}

// Create stores a manually entered activity. Completed activities with a
// route are queued for segment matching, same as recorded ones.
func (s *activityService) Create(ctx context.Context, userID primitive.ObjectID, req *validators.ActivityCreateRequest) (*models.Activity, error) {
	now := s.now()

	activity := &models.Activity{
		UserID:          userID,
		Type:            models.ActivityType(req.Type),
		Title:           req.Title,
		Description:     req.Description,
		Visibility:      models.VisibilityPublic,
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		ElevationGain:   req.ElevationGain,
		ElevationLoss:   req.ElevationLoss,
		AvgHeartRate:    req.AvgHeartRate,
		MaxHeartRate:    req.MaxHeartRate,
		StartedAt:       req.StartedAt,
	}

	if req.Visibility != "" {
		activity.Visibility = models.ActivityVisibility(req.Visibility)
	}

	if len(req.Route) > 0 {
		route := models.GeoLineStringFromPoints(routePointsFromRequest(req.Route))
		activity.Route = &route
	}

	if req.Completed {
		completedAt := now
		activity.CompletedAt = &completedAt

		if activity.DurationSeconds > 0 && activity.DistanceMeters > 0 {
			activity.AvgSpeedKmh = activity.DistanceMeters / float64(activity.DurationSeconds) * 3.6
		}
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	if activity.CanMatchSegments() {
		msg := queue.ActivityCompletedMessage{
			ActivityID:  activity.ID,
			UserID:      activity.UserID,
			PublishedAt: s.now(),
		}
		if err := s.publisher.PublishActivityCompleted(ctx, msg); err != nil {
			// The activity is saved; matching can be replayed later.
			s.log.WithError(err).WithActivityID(activity.ID).Error("failed to publish activity completed event")
		}
	}

	s.log.LogActivityEvent(activity.ID, utils.EventActivityCompleted, map[string]interface{}{
		"manual": true,
	})

	return activity, nil
}

// GetByID enforces visibility: owners always see their activities, anyone
// else only public ones.
func (s *activityService) GetByID(ctx context.Context, id, viewerID primitive.ObjectID) (*models.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if activity.UserID != viewerID && activity.Visibility != models.VisibilityPublic {
		return nil, apperrors.NewNotFoundError("activity", id.Hex())
	}

	return activity, nil
}

func (s *activityService) ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	if params != nil {
		if err := params.EnsureSortAllowed(activitySortFields...); err != nil {
			return nil, 0, err
		}
	}
	return s.activityRepo.ListByUser(ctx, userID, params)
}

func (s *activityService) ListPublic(ctx context.Context, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	if params != nil {
		if err := params.EnsureSortAllowed(activitySortFields...); err != nil {
			return nil, 0, err
		}
	}
	return s.activityRepo.ListPublic(ctx, params)
}

func (s *activityService) Update(ctx context.Context, id, userID primitive.ObjectID, req *validators.ActivityUpdateRequest) (*models.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.UserID != userID {
		return nil, apperrors.NewValidationError("owner", "only the owner can update an activity")
	}

	updates := map[string]interface{}{"updated_at": s.now()}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Visibility != nil {
		updates["visibility"] = *req.Visibility
	}

	if err := s.activityRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	return s.activityRepo.GetByID(ctx, id)
}

func (s *activityService) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if activity.UserID != userID {
		return apperrors.NewValidationError("owner", "only the owner can delete an activity")
	}

	if err := s.activityRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.log.WithActivityID(id).WithUserID(userID).Info("activity deleted")
	return nil
}
