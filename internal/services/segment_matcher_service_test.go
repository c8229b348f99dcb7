package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/internal/apperrors"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/pkg/geometry"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type matcherFixture struct {
	activityRepo *fakeActivityRepo
	segmentRepo  *fakeSegmentRepo
	effortRepo   *fakeEffortRepo
	engine       geometry.Engine
	cfg          *config.MatcherConfig
	svc          SegmentMatcherService
}

func newMatcherFixture(t *testing.T) *matcherFixture {
	t.Helper()

	f := &matcherFixture{
		activityRepo: newFakeActivityRepo(),
		segmentRepo:  newFakeSegmentRepo(),
		effortRepo:   &fakeEffortRepo{},
		engine:       geometry.NewPlanarEngine(),
		cfg: &config.MatcherConfig{
			MinOverlapPercent: 90,
			SegmentLockTTL:    30 * time.Second,
		},
	}

	f.svc = NewSegmentMatcherService(f.activityRepo, f.segmentRepo, f.effortRepo, f.engine, &fakeLocker{}, f.cfg, newTestLogger())
	return f
}

// equatorRoute builds a stored route along the equator from lng coordinates.
func equatorRoute(lngs ...float64) models.GeoLineString {
	coords := make([][]float64, 0, len(lngs))
	for _, lng := range lngs {
		coords = append(coords, []float64{lng, 0})
	}
	return models.NewGeoLineString(coords)
}

// denseEquatorRoute spans [0, end] with a vertex every step degrees.
func denseEquatorRoute(end, step float64) models.GeoLineString {
	var lngs []float64
	for lng := 0.0; lng <= end+step/2; lng += step {
		lngs = append(lngs, lng)
	}
	return equatorRoute(lngs...)
}

func (f *matcherFixture) addSegment(route models.GeoLineString, segmentType models.SegmentType) *models.Segment {
	line, _ := geometry.NewLineString(route.Points())
	segment := &models.Segment{
		ID:             primitive.NewObjectID(),
		CreatorID:      primitive.NewObjectID(),
		Name:           "Test climb",
		Type:           segmentType,
		Route:          route,
		DistanceMeters: f.engine.LengthMeters(line),
	}
	f.segmentRepo.segments[segment.ID] = segment
	f.segmentRepo.intersecting = append(f.segmentRepo.intersecting, segment)
	return segment
}

func (f *matcherFixture) addActivity(route models.GeoLineString, activityType models.ActivityType, durationSeconds int) *models.Activity {
	line, _ := geometry.NewLineString(route.Points())
	started := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	completed := started.Add(time.Duration(durationSeconds) * time.Second)

	activity := &models.Activity{
		ID:              primitive.NewObjectID(),
		UserID:          primitive.NewObjectID(),
		Type:            activityType,
		Title:           "Test effort",
		Route:           &route,
		DistanceMeters:  f.engine.LengthMeters(line),
		DurationSeconds: durationSeconds,
		StartedAt:       started,
		CompletedAt:     &completed,
	}
	f.activityRepo.activities[activity.ID] = activity
	return activity
}

func TestProcessActivityCreatesEffort(t *testing.T) {
	f := newMatcherFixture(t)

	segment := f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRun)
	activity := f.addActivity(denseEquatorRoute(0.01, 0.001), models.ActivityTypeRun, 300)

	created, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)

	require.Len(t, f.effortRepo.efforts, 1)
	effort := f.effortRepo.efforts[0]
	assert.Equal(t, effort, created[0])

	// Activity and segment cover the same route, so the effort gets the
	// whole activity duration.
	assert.Equal(t, 300, effort.DurationSeconds)
	assert.Equal(t, segment.ID, effort.SegmentID)
	assert.Equal(t, activity.ID, effort.ActivityID)
	assert.Equal(t, activity.UserID, effort.UserID)
	assert.Equal(t, *activity.CompletedAt, effort.AchievedAt)

	assert.True(t, effort.IsKom)
	assert.True(t, effort.IsPr)
	require.NotNil(t, effort.RankOverall)
	assert.Equal(t, 1, *effort.RankOverall)

	assert.Equal(t, 1, f.segmentRepo.attempts[segment.ID])
	assert.Equal(t, int64(1), f.segmentRepo.uniqueAthletes[segment.ID])
}

func TestProcessActivityIsIdempotent(t *testing.T) {
	f := newMatcherFixture(t)

	segment := f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRun)
	activity := f.addActivity(denseEquatorRoute(0.01, 0.001), models.ActivityTypeRun, 300)

	first, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	replay, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Empty(t, replay)

	assert.Len(t, f.effortRepo.efforts, 1)
	assert.Equal(t, 1, f.segmentRepo.attempts[segment.ID])
}

func TestProcessActivitySkipsPartialCoverage(t *testing.T) {
	f := newMatcherFixture(t)

	f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRun)
	// The activity only runs the first half of the segment.
	activity := f.addActivity(equatorRoute(0, 0.005), models.ActivityTypeRun, 150)

	created, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, f.effortRepo.efforts)
}

func TestProcessActivitySkipsTypeMismatch(t *testing.T) {
	f := newMatcherFixture(t)

	f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRide)
	activity := f.addActivity(denseEquatorRoute(0.01, 0.001), models.ActivityTypeRun, 300)

	created, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, f.effortRepo.efforts)
}

func TestProcessActivitySkipsMissingActivity(t *testing.T) {
	f := newMatcherFixture(t)

	created, err := f.svc.ProcessActivity(context.Background(), primitive.NewObjectID())
	assert.NoError(t, err)
	assert.Empty(t, created)
}

func TestProcessActivityReportsStorageFailureAsTransient(t *testing.T) {
	f := newMatcherFixture(t)
	f.effortRepo.createErr = assert.AnError

	f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRun)
	activity := f.addActivity(denseEquatorRoute(0.01, 0.001), models.ActivityTypeRun, 300)

	_, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestEstimateEffortSeconds(t *testing.T) {
	segment := &models.Segment{DistanceMeters: 1000}

	activity := &models.Activity{DistanceMeters: 4000, DurationSeconds: 1200}
	estimated, ok := estimateEffortSeconds(activity, segment, 100)
	require.True(t, ok)
	assert.Equal(t, 300, estimated)

	// 95% overlap scales the covered distance
	estimated, ok = estimateEffortSeconds(activity, segment, 95)
	require.True(t, ok)
	assert.Equal(t, 285, estimated)

	// Estimates never drop below one second
	tiny := &models.Activity{DistanceMeters: 1e9, DurationSeconds: 1}
	estimated, ok = estimateEffortSeconds(tiny, segment, 100)
	require.True(t, ok)
	assert.Equal(t, 1, estimated)

	_, ok = estimateEffortSeconds(&models.Activity{DistanceMeters: 0, DurationSeconds: 600}, segment, 100)
	assert.False(t, ok)

	_, ok = estimateEffortSeconds(&models.Activity{DistanceMeters: 4000, DurationSeconds: 0}, segment, 100)
	assert.False(t, ok)
}

// Overlap exactly at the threshold still creates an effort; only strictly
// lower coverage is skipped.
func TestProcessActivityAcceptsOverlapAtThreshold(t *testing.T) {
	f := newMatcherFixture(t)

	segment := f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRun)
	activity := f.addActivity(equatorRoute(0, 0.0095), models.ActivityTypeRun, 285)

	segmentLine, err := geometry.NewLineString(segment.Route.Points())
	require.NoError(t, err)
	activityLine, err := geometry.NewLineString(activity.Route.Points())
	require.NoError(t, err)

	overlap := f.engine.Intersection(activityLine, segmentLine)
	require.NotNil(t, overlap)
	pct := f.engine.LengthMeters(*overlap) / segment.DistanceMeters * 100
	require.Less(t, pct, 100.0)

	f.cfg.MinOverlapPercent = pct
	created, err := f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Len(t, created, 1)

	// Nudging the threshold just above the measured overlap rejects it.
	f.effortRepo.efforts = nil
	f.cfg.MinOverlapPercent = math.Nextafter(pct, 101)
	created, err = f.svc.ProcessActivity(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestProcessActivityRanksTwoUsers(t *testing.T) {
	f := newMatcherFixture(t)

	segment := f.addSegment(denseEquatorRoute(0.01, 0.001), models.SegmentTypeRun)
	faster := f.addActivity(denseEquatorRoute(0.01, 0.001), models.ActivityTypeRun, 300)
	slower := f.addActivity(denseEquatorRoute(0.01, 0.001), models.ActivityTypeRun, 360)

	created, err := f.svc.ProcessActivity(context.Background(), faster.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	fastEffort := created[0]

	created, err = f.svc.ProcessActivity(context.Background(), slower.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	slowEffort := created[0]

	assert.True(t, fastEffort.IsKom)
	assert.True(t, fastEffort.IsPr)
	require.NotNil(t, fastEffort.RankOverall)
	assert.Equal(t, 1, *fastEffort.RankOverall)

	assert.False(t, slowEffort.IsKom)
	assert.True(t, slowEffort.IsPr)
	require.NotNil(t, slowEffort.RankOverall)
	assert.Equal(t, 2, *slowEffort.RankOverall)

	assert.Equal(t, 2, f.segmentRepo.attempts[segment.ID])
	assert.Equal(t, int64(2), f.segmentRepo.uniqueAthletes[segment.ID])
}

func TestBuildEffortSpeedAndTimestamp(t *testing.T) {
	started := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	completed := started.Add(10 * time.Minute)

	activity := &models.Activity{
		ID:          primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		StartedAt:   started,
		CompletedAt: &completed,
	}
	segment := &models.Segment{ID: primitive.NewObjectID(), DistanceMeters: 1000}

	effort := buildEffort(activity, segment, 300, 90)

	// One segment kilometer in 300 s is 12 km/h, regardless of the
	// matched share.
	assert.InDelta(t, 12.0, effort.AvgSpeedKmh, 0.001)
	assert.Equal(t, completed, effort.AchievedAt)
}

func TestRecomputeRankingsFlags(t *testing.T) {
	f := newMatcherFixture(t)
	svc := f.svc.(*segmentMatcherService)

	segmentID := primitive.NewObjectID()
	fastUser := primitive.NewObjectID()
	slowUser := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	fast := &models.SegmentEffort{ID: primitive.NewObjectID(), SegmentID: segmentID, UserID: fastUser, DurationSeconds: 200, AchievedAt: base}
	slow := &models.SegmentEffort{ID: primitive.NewObjectID(), SegmentID: segmentID, UserID: slowUser, DurationSeconds: 260, AchievedAt: base.Add(time.Hour)}
	repeat := &models.SegmentEffort{ID: primitive.NewObjectID(), SegmentID: segmentID, UserID: fastUser, DurationSeconds: 320, AchievedAt: base.Add(2 * time.Hour)}
	f.effortRepo.efforts = []*models.SegmentEffort{fast, slow, repeat}

	require.NoError(t, svc.recomputeRankings(context.Background(), segmentID))

	assert.True(t, fast.IsKom)
	assert.True(t, fast.IsPr)
	require.NotNil(t, fast.RankOverall)
	assert.Equal(t, 1, *fast.RankOverall)

	assert.False(t, slow.IsKom)
	assert.True(t, slow.IsPr)
	require.NotNil(t, slow.RankOverall)
	assert.Equal(t, 2, *slow.RankOverall)

	// A user's second, slower effort carries no flags and no rank
	assert.False(t, repeat.IsKom)
	assert.False(t, repeat.IsPr)
	assert.Nil(t, repeat.RankOverall)
}

func TestRecomputeRankingsKomTieBreaksOnEarliest(t *testing.T) {
	f := newMatcherFixture(t)
	svc := f.svc.(*segmentMatcherService)

	segmentID := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	early := &models.SegmentEffort{ID: primitive.NewObjectID(), SegmentID: segmentID, UserID: primitive.NewObjectID(), DurationSeconds: 240, AchievedAt: base}
	late := &models.SegmentEffort{ID: primitive.NewObjectID(), SegmentID: segmentID, UserID: primitive.NewObjectID(), DurationSeconds: 240, AchievedAt: base.Add(time.Minute)}
	f.effortRepo.efforts = []*models.SegmentEffort{late, early}

	require.NoError(t, svc.recomputeRankings(context.Background(), segmentID))

	assert.True(t, early.IsKom)
	assert.False(t, late.IsKom)
}

var _ interfaces.EffortRepository = (*fakeEffortRepo)(nil)
