package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/internal/apperrors"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type trackingFixture struct {
	cache       *fakeSessionCache
	locker      *fakeLocker
	repo        *fakeActivityRepo
	publisher   *fakePublisher
	broadcaster *fakeBroadcaster
	svc         *trackingService
	clock       time.Time
}

func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()

	f := &trackingFixture{
		cache:       newFakeSessionCache(),
		locker:      &fakeLocker{},
		repo:        newFakeActivityRepo(),
		publisher:   &fakePublisher{},
		broadcaster: &fakeBroadcaster{},
		clock:       time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
	}

	cfg := &config.TrackingConfig{
		SessionTTL:        2 * time.Hour,
		LockTTL:           10 * time.Second,
		LockRetryInterval: time.Millisecond,
	}

	svc := NewTrackingService(f.cache, f.locker, f.repo, f.publisher, f.broadcaster, cfg, newTestLogger())
	f.svc = svc.(*trackingService)
	f.svc.now = func() time.Time { return f.clock }

	return f
}

func (f *trackingFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *trackingFixture) point(lat, lng float64, alt *float64, hr *int) models.TrackPoint {
	return models.TrackPoint{Lat: lat, Lng: lng, Alt: alt, HeartRate: hr, Timestamp: f.clock}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestStartCreatesActiveSession(t *testing.T) {
	f := newTrackingFixture(t)

	session, err := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "Morning run")
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.TrackingStatusActive, session.Status)
	assert.Equal(t, f.clock, session.StartedAt)
	assert.Equal(t, 2*time.Hour, f.cache.lastTTL)
	assert.Contains(t, f.broadcaster.eventTypes(), utils.EventTrackingStarted)
}

func TestTrackAppendsPointAndRefreshesTTL(t *testing.T) {
	f := newTrackingFixture(t)
	session, err := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")
	require.NoError(t, err)

	f.advance(10 * time.Second)
	accepted, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0.001, nil, nil))
	require.NoError(t, err)
	assert.True(t, accepted)

	current, err := f.svc.GetStatus(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, current.Points, 1)

	// Each accepted write refreshes the TTL
	assert.Equal(t, 2, f.cache.sets)
	assert.Equal(t, 2*time.Hour, f.cache.lastTTL)
	assert.Contains(t, f.broadcaster.eventTypes(), utils.EventTrackingPoint)
}

func TestTrackRejectsUnknownSession(t *testing.T) {
	f := newTrackingFixture(t)

	accepted, err := f.svc.Track(context.Background(), "missing", f.point(0, 0, nil, nil))
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestTrackRejectsWhenPaused(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	paused, err := f.svc.Pause(context.Background(), session.ID)
	require.NoError(t, err)
	require.True(t, paused)

	accepted, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestPauseResumeStateMachine(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRide, "ride")

	// Resume on an active session is a no-op
	resumed, err := f.svc.Resume(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, resumed)

	paused, err := f.svc.Pause(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, paused)

	// Pause on a paused session is a no-op
	paused, err = f.svc.Pause(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, paused)

	resumed, err = f.svc.Resume(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, resumed)
}

func TestResumeAccumulatesPauseTime(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)

	f.advance(60 * time.Second)
	_, err = f.svc.Pause(context.Background(), session.ID)
	require.NoError(t, err)

	f.advance(10 * time.Second)
	_, err = f.svc.Resume(context.Background(), session.ID)
	require.NoError(t, err)

	f.advance(30 * time.Second)
	_, err = f.svc.Track(context.Background(), session.ID, f.point(0, 0.001, nil, nil))
	require.NoError(t, err)

	activity, err := f.svc.Finish(context.Background(), session.ID, "", "")
	require.NoError(t, err)
	require.NotNil(t, activity)

	assert.Equal(t, 100, activity.DurationSeconds)
	assert.Equal(t, 90, activity.MovingTimeSeconds)
}

func TestFinishKeepsShortSessionsOpen(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)

	activity, err := f.svc.Finish(context.Background(), session.ID, "", "")
	require.NoError(t, err)
	assert.Nil(t, activity)

	// The session survives so the athlete can keep tracking
	current, err := f.svc.GetStatus(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TrackingStatusActive, current.Status)

	f.advance(30 * time.Second)
	accepted, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0.001, nil, nil))
	require.NoError(t, err)
	assert.True(t, accepted)

	// Nothing was persisted or published for the aborted finish
	assert.Empty(t, f.repo.activities)
	assert.Empty(t, f.publisher.messages)
}

func TestFinishComputesSummary(t *testing.T) {
	f := newTrackingFixture(t)
	userID := primitive.NewObjectID()
	session, _ := f.svc.Start(context.Background(), userID, models.ActivityTypeRun, "Tempo run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, floatPtr(10), intPtr(120)))
	require.NoError(t, err)

	f.advance(600 * time.Second)
	_, err = f.svc.Track(context.Background(), session.ID, f.point(0, 0.01, floatPtr(30), intPtr(140)))
	require.NoError(t, err)

	activity, err := f.svc.Finish(context.Background(), session.ID, "", "")
	require.NoError(t, err)
	require.NotNil(t, activity)

	// 0.01 degrees of longitude at the equator is about 1112 m
	assert.InDelta(t, 1112, activity.DistanceMeters, 2)
	assert.Equal(t, 600, activity.DurationSeconds)
	assert.Equal(t, 600, activity.MovingTimeSeconds)
	assert.InDelta(t, 6.67, activity.AvgSpeedKmh, 0.05)
	assert.InDelta(t, 6.67, activity.MaxSpeedKmh, 0.05)
	assert.InDelta(t, 20, activity.ElevationGain, 0.01)
	assert.Equal(t, 0.0, activity.ElevationLoss)
	require.NotNil(t, activity.AvgHeartRate)
	assert.Equal(t, 130, *activity.AvgHeartRate)
	require.NotNil(t, activity.MaxHeartRate)
	assert.Equal(t, 140, *activity.MaxHeartRate)

	assert.Equal(t, userID, activity.UserID)
	require.NotNil(t, activity.Route)
	assert.Equal(t, 2, activity.Route.PointCount())
	require.NotNil(t, activity.CompletedAt)
	require.NotNil(t, activity.RawData)
	assert.Len(t, activity.RawData.Points, 2)

	// Persisted and handed to the matcher
	assert.Len(t, f.repo.activities, 1)
	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, activity.ID, f.publisher.messages[0].ActivityID)
	assert.Contains(t, f.broadcaster.eventTypes(), utils.EventTrackingFinished)
}

func TestFinishSurvivesPublishFailure(t *testing.T) {
	f := newTrackingFixture(t)
	f.publisher.err = assert.AnError
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.svc.Track(context.Background(), session.ID, f.point(0, 0.001, nil, nil))
	require.NoError(t, err)

	activity, err := f.svc.Finish(context.Background(), session.ID, "", "")
	require.NoError(t, err)
	require.NotNil(t, activity)
	assert.Len(t, f.repo.activities, 1)
}

func TestFinishStoresDescriptionAndVisibility(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.svc.Track(context.Background(), session.ID, f.point(0, 0.001, nil, nil))
	require.NoError(t, err)

	activity, err := f.svc.Finish(context.Background(), session.ID, "Intervals on the river loop", models.VisibilityPrivate)
	require.NoError(t, err)
	require.NotNil(t, activity)

	assert.Equal(t, "Intervals on the river loop", activity.Description)
	assert.Equal(t, models.VisibilityPrivate, activity.Visibility)
}

func TestFinishDefaultsVisibilityToPublic(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.svc.Track(context.Background(), session.ID, f.point(0, 0.001, nil, nil))
	require.NoError(t, err)

	activity, err := f.svc.Finish(context.Background(), session.ID, "", "")
	require.NoError(t, err)
	require.NotNil(t, activity)

	assert.Empty(t, activity.Description)
	assert.Equal(t, models.VisibilityPublic, activity.Visibility)
}

func TestGetStatusMissingSession(t *testing.T) {
	f := newTrackingFixture(t)

	_, err := f.svc.GetStatus(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMutationsRunUnderSessionLock(t *testing.T) {
	f := newTrackingFixture(t)
	session, _ := f.svc.Start(context.Background(), primitive.NewObjectID(), models.ActivityTypeRun, "run")

	_, err := f.svc.Track(context.Background(), session.ID, f.point(0, 0, nil, nil))
	require.NoError(t, err)

	expected := utils.TrackingLockPrefix + session.ID
	require.NotEmpty(t, f.locker.keys)
	assert.Equal(t, expected, f.locker.keys[len(f.locker.keys)-1])
}
