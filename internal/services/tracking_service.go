package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/utils"
	"fittrack/pkg/geometry"
	"fittrack/pkg/logger"
	"fittrack/pkg/queue"
)

// SessionCache is the slice of the redis wrapper the tracking service needs.
type SessionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Locker serializes read-modify-write cycles on a shared key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// EventPublisher hands finished activities to the background matcher.
type EventPublisher interface {
	PublishActivityCompleted(ctx context.Context, msg queue.ActivityCompletedMessage) error
}

// TrackingBroadcaster pushes live session events to websocket watchers.
type TrackingBroadcaster interface {
	SendTrackingUpdate(sessionID string, updateType string, data map[string]interface{})
}

type TrackingService interface {
	Start(ctx context.Context, userID primitive.ObjectID, activityType models.ActivityType, title string) (*models.TrackingSession, error)
	Track(ctx context.Context, sessionID string, point models.TrackPoint) (bool, error)
	Pause(ctx context.Context, sessionID string) (bool, error)
	Resume(ctx context.Context, sessionID string) (bool, error)
	Finish(ctx context.Context, sessionID, description string, visibility models.ActivityVisibility) (*models.Activity, error)
	GetStatus(ctx context.Context, sessionID string) (*models.TrackingSession, error)
}

type trackingService struct {
	cache        SessionCache
	locker       Locker
	activityRepo interfaces.ActivityRepository
	publisher    EventPublisher
	broadcaster  TrackingBroadcaster
	cfg          *config.TrackingConfig
	log          *logger.Logger
	now          func() time.Time
}

func NewTrackingService(
	cache SessionCache,
	locker Locker,
	activityRepo interfaces.ActivityRepository,
	publisher EventPublisher,
	broadcaster TrackingBroadcaster,
	cfg *config.TrackingConfig,
	log *logger.Logger,
) TrackingService {
	return &trackingService{
		cache:        cache,
		locker:       locker,
		activityRepo: activityRepo,
		publisher:    publisher,
		broadcaster:  broadcaster,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
	}
}

func (s *trackingService) Start(ctx context.Context, userID primitive.ObjectID, activityType models.ActivityType, title string) (*models.TrackingSession, error) {
	session := &models.TrackingSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      activityType,
		Title:     title,
		Status:    models.TrackingStatusActive,
		StartedAt: s.now(),
		Points:    []models.TrackPoint{},
	}

	if err := s.save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start tracking session: %w", err)
	}

	s.log.WithUserID(userID).WithSessionID(session.ID).Info("tracking session started")
	s.broadcaster.SendTrackingUpdate(session.ID, utils.EventTrackingStarted, map[string]interface{}{
		"user_id": userID.Hex(),
		"type":    string(activityType),
	})

	return session, nil
}

// Track appends a GPS point to an active session. Returns false when the
// session does not exist or is not active; the session TTL is refreshed on
// every accepted point.
func (s *trackingService) Track(ctx context.Context, sessionID string, point models.TrackPoint) (bool, error) {
	var accepted bool

	err := s.locker.WithLock(ctx, lockKey(sessionID), func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.Status != models.TrackingStatusActive {
			return nil
		}

		if point.Timestamp.IsZero() {
			point.Timestamp = s.now()
		}
		session.Points = append(session.Points, point)

		if err := s.save(ctx, session); err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if accepted {
		data := map[string]interface{}{
			"lat": point.Lat,
			"lng": point.Lng,
		}
		if point.Alt != nil {
			data["alt"] = *point.Alt
		}
		if point.HeartRate != nil {
			data["hr"] = *point.HeartRate
		}
		s.broadcaster.SendTrackingUpdate(sessionID, utils.EventTrackingPoint, data)
	}

	return accepted, nil
}

func (s *trackingService) Pause(ctx context.Context, sessionID string) (bool, error) {
	var paused bool

	err := s.locker.WithLock(ctx, lockKey(sessionID), func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.Status != models.TrackingStatusActive {
			return nil
		}

		now := s.now()
		session.Status = models.TrackingStatusPaused
		session.PausedAt = &now

		if err := s.save(ctx, session); err != nil {
			return err
		}
		paused = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if paused {
		s.broadcaster.SendTrackingUpdate(sessionID, utils.EventTrackingPaused, nil)
	}

	return paused, nil
}

func (s *trackingService) Resume(ctx context.Context, sessionID string) (bool, error) {
	var resumed bool

	err := s.locker.WithLock(ctx, lockKey(sessionID), func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil || session.Status != models.TrackingStatusPaused {
			return nil
		}

		if session.PausedAt != nil {
			session.TotalPauseSeconds += int(s.now().Sub(*session.PausedAt).Seconds())
		}
		session.PausedAt = nil
		session.Status = models.TrackingStatusActive

		if err := s.save(ctx, session); err != nil {
			return err
		}
		resumed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if resumed {
		s.broadcaster.SendTrackingUpdate(sessionID, utils.EventTrackingResumed, nil)
	}

	return resumed, nil
}

// Finish closes the session, computes the activity summary, persists it and
// queues it for segment matching. Visibility defaults to public. Sessions
// with fewer than two points are left running and no activity is returned,
// letting the athlete keep tracking.
func (s *trackingService) Finish(ctx context.Context, sessionID, description string, visibility models.ActivityVisibility) (*models.Activity, error) {
	var activity *models.Activity

	err := s.locker.WithLock(ctx, lockKey(sessionID), func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return apperrors.NewNotFoundError("tracking session", sessionID)
		}

		if len(session.Points) < utils.MinTrackPointsForSummary {
			s.log.WithSessionID(sessionID).Warn("tracking session finished with too few points, keeping it open")
			return nil
		}

		if err := s.cache.Delete(ctx, sessionKey(sessionID)); err != nil {
			return fmt.Errorf("failed to delete tracking session: %w", err)
		}

		activity = s.buildActivity(session, description, visibility)
		if err := s.activityRepo.Create(ctx, activity); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, nil
	}

	msg := queue.ActivityCompletedMessage{
		ActivityID:  activity.ID,
		UserID:      activity.UserID,
		PublishedAt: s.now(),
	}
	if err := s.publisher.PublishActivityCompleted(ctx, msg); err != nil {
		// The activity is saved; matching can be replayed later.
		s.log.WithError(err).WithActivityID(activity.ID).Error("failed to publish activity completed event")
	}

	s.broadcaster.SendTrackingUpdate(sessionID, utils.EventTrackingFinished, map[string]interface{}{
		"activity_id":     activity.ID.Hex(),
		"distance_meters": activity.DistanceMeters,
	})
	s.log.LogActivityEvent(activity.ID, utils.EventActivityCompleted, map[string]interface{}{
		"session_id": sessionID,
	})

	return activity, nil
}

func (s *trackingService) GetStatus(ctx context.Context, sessionID string) (*models.TrackingSession, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError("tracking session", sessionID)
	}
	return session, nil
}

func (s *trackingService) buildActivity(session *models.TrackingSession, description string, visibility models.ActivityVisibility) *models.Activity {
	now := s.now()
	points := session.Points

	totalPause := session.TotalPauseSeconds
	if session.Status == models.TrackingStatusPaused && session.PausedAt != nil {
		totalPause += int(now.Sub(*session.PausedAt).Seconds())
	}

	duration := int(now.Sub(session.StartedAt).Seconds())
	moving := duration - totalPause
	if moving < 0 {
		moving = 0
	}

	var distance, elevationGain, elevationLoss, maxSpeedKmh float64
	var hrSum, hrCount, maxHR int

	for i, p := range points {
		if p.HeartRate != nil {
			hrSum += *p.HeartRate
			hrCount++
			if *p.HeartRate > maxHR {
				maxHR = *p.HeartRate
			}
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]

		d := geometry.Haversine(prev.Lat, prev.Lng, p.Lat, p.Lng)
		distance += d

		if prev.Alt != nil && p.Alt != nil {
			delta := *p.Alt - *prev.Alt
			if delta > 0 {
				elevationGain += delta
			} else {
				elevationLoss += -delta
			}
		}

		// Skip speed samples with non-positive time deltas; out-of-order
		// points would otherwise produce absurd speeds.
		dt := p.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt > 0 {
			speedKmh := d / dt * 3.6
			if speedKmh > maxSpeedKmh {
				maxSpeedKmh = speedKmh
			}
		}
	}

	var avgSpeedKmh float64
	if moving > 0 {
		avgSpeedKmh = distance / float64(moving) * 3.6
	}

	route := routeFromPoints(points)
	completedAt := now

	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	activity := &models.Activity{
		UserID:            session.UserID,
		Type:              session.Type,
		Title:             session.Title,
		Description:       description,
		Visibility:        visibility,
		Route:             &route,
		DistanceMeters:    math.Round(distance*100) / 100,
		DurationSeconds:   duration,
		MovingTimeSeconds: moving,
		ElevationGain:     math.Round(elevationGain*100) / 100,
		ElevationLoss:     math.Round(elevationLoss*100) / 100,
		AvgSpeedKmh:       math.Round(avgSpeedKmh*100) / 100,
		MaxSpeedKmh:       math.Round(maxSpeedKmh*100) / 100,
		RawData:           &models.ActivityRawData{Points: points},
		StartedAt:         session.StartedAt,
		CompletedAt:       &completedAt,
	}

	if hrCount > 0 {
		avg := int(math.Round(float64(hrSum) / float64(hrCount)))
		activity.AvgHeartRate = &avg
		activity.MaxHeartRate = &maxHR
	}

	return activity
}

// load returns (nil, nil) when the session key is missing or expired.
func (s *trackingService) load(ctx context.Context, sessionID string) (*models.TrackingSession, error) {
	var session models.TrackingSession
	err := s.cache.Get(ctx, sessionKey(sessionID), &session)
	if err != nil {
		if isCacheMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load tracking session: %w", err)
	}
	return &session, nil
}

func (s *trackingService) save(ctx context.Context, session *models.TrackingSession) error {
	return s.cache.Set(ctx, sessionKey(session.ID), session, s.cfg.SessionTTL)
}

func routeFromPoints(points []models.TrackPoint) models.GeoLineString {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		if p.Alt != nil {
			coords = append(coords, []float64{p.Lng, p.Lat, *p.Alt})
		} else {
			coords = append(coords, []float64{p.Lng, p.Lat})
		}
	}
	return models.NewGeoLineString(coords)
}

func sessionKey(sessionID string) string {
	return utils.TrackingSessionPrefix + sessionID
}

func lockKey(sessionID string) string {
	return utils.TrackingLockPrefix + sessionID
}
