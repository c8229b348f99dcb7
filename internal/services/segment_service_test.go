package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/utils"
	"fittrack/internal/validators"
	"fittrack/pkg/geometry"
	"fittrack/pkg/maps"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGeocoder struct {
	place *maps.PlaceInfo
	err   error
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*maps.PlaceInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.place, nil
}

type segmentFixture struct {
	segmentRepo *fakeSegmentRepo
	effortRepo  *fakeEffortRepo
	userRepo    *fakeUserRepo
	geocoder    *fakeGeocoder
	svc         SegmentService
}

func newSegmentFixture(t *testing.T) *segmentFixture {
	t.Helper()

	f := &segmentFixture{
		segmentRepo: newFakeSegmentRepo(),
		effortRepo:  &fakeEffortRepo{},
		userRepo:    &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}},
		geocoder:    &fakeGeocoder{place: &maps.PlaceInfo{City: "Boulder", State: "CO"}},
	}
	f.svc = NewSegmentService(f.segmentRepo, f.effortRepo, f.userRepo, geometry.NewPlanarEngine(), f.geocoder, newTestLogger())
	return f
}

func climbRequest() *validators.SegmentCreateRequest {
	alt := func(v float64) *float64 { return &v }
	return &validators.SegmentCreateRequest{
		Name: "Canyon climb",
		Type: "ride",
		Route: []validators.RoutePointRequest{
			{Lat: 0, Lng: 0, Alt: alt(100)},
			{Lat: 0, Lng: 0.001, Alt: alt(110)},
			{Lat: 0, Lng: 0.002, Alt: alt(105)},
			{Lat: 0, Lng: 0.003, Alt: alt(115)},
		},
	}
}

func TestSegmentCreateDerivesStats(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	assert.Equal(t, creatorID, segment.CreatorID)
	assert.Equal(t, models.SegmentTypeRide, segment.Type)

	// Three legs of 0.001 degrees each, about 333.6 m total
	assert.InDelta(t, 333.6, segment.DistanceMeters, 1)
	assert.InDelta(t, 20, segment.ElevationGain, 0.01)
	// Net climb of 15 m over the full distance
	assert.InDelta(t, 4.5, segment.AvgGradePercent, 0.1)
	// Steepest leg climbs 10 m over ~111 m
	assert.InDelta(t, 9.0, segment.MaxGradePercent, 0.1)

	assert.Equal(t, "Boulder", segment.City)
	assert.Equal(t, "CO", segment.State)
	assert.Equal(t, 4, segment.Route.PointCount())
	assert.False(t, segment.ID.IsZero())
}

func TestSegmentCreateRejectsShortRoute(t *testing.T) {
	f := newSegmentFixture(t)

	req := &validators.SegmentCreateRequest{
		Name: "Too short",
		Type: "run",
		Route: []validators.RoutePointRequest{
			{Lat: 0, Lng: 0},
			{Lat: 0, Lng: 0.0005}, // ~56 m
		},
	}

	_, err := f.svc.Create(context.Background(), primitive.NewObjectID(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSegmentCreateSurvivesGeocoderFailure(t *testing.T) {
	f := newSegmentFixture(t)
	f.geocoder.err = assert.AnError

	segment, err := f.svc.Create(context.Background(), primitive.NewObjectID(), climbRequest())
	require.NoError(t, err)
	assert.Empty(t, segment.City)
	assert.Empty(t, segment.State)
}

func TestSegmentUpdateRequiresCreator(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	name := "Renamed climb"
	_, err = f.svc.Update(context.Background(), segment.ID, primitive.NewObjectID(), &validators.SegmentUpdateRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	updated, err := f.svc.Update(context.Background(), segment.ID, creatorID, &validators.SegmentUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed climb", updated.Name)
}

func TestSegmentDeleteRequiresCreator(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), segment.ID, primitive.NewObjectID())
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.Delete(context.Background(), segment.ID, creatorID))
	_, err = f.svc.GetByID(context.Background(), segment.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSegmentListRejectsUnknownType(t *testing.T) {
	f := newSegmentFixture(t)

	bogus := models.SegmentType("swim")
	_, _, err := f.svc.List(context.Background(), &bogus, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSegmentListRejectsUnknownSortField(t *testing.T) {
	f := newSegmentFixture(t)

	params := &utils.PaginationParams{Page: 1, PageSize: 10, Sort: "$where", Order: "asc"}
	_, _, err := f.svc.List(context.Background(), nil, params)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	params.Sort = "distance_meters"
	_, _, err = f.svc.List(context.Background(), nil, params)
	require.NoError(t, err)
}

func TestLeaderboardJoinsUsers(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	knownUser := primitive.NewObjectID()
	ghostUser := primitive.NewObjectID()
	f.userRepo.users[knownUser] = &models.User{ID: knownUser, Name: "Ada", Username: "ada"}

	f.effortRepo.efforts = []*models.SegmentEffort{
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: knownUser, DurationSeconds: 180, RankOverall: intPtr(1)},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: ghostUser, DurationSeconds: 240, RankOverall: intPtr(2)},
	}

	entries, total, err := f.svc.GetLeaderboard(context.Background(), segment.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	// Fastest first, joined with the athlete record when one exists
	assert.Equal(t, 180, entries[0].Effort.DurationSeconds)
	require.NotNil(t, entries[0].User)
	assert.Equal(t, "ada", entries[0].User.Username)
	assert.Nil(t, entries[1].User)
}

func TestLeaderboardOneEntryPerUser(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	userID := primitive.NewObjectID()
	rivalID := primitive.NewObjectID()

	// Only each user's best effort carries a rank; repeat attempts stay
	// unranked and must not show up on the board.
	f.effortRepo.efforts = []*models.SegmentEffort{
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: userID, DurationSeconds: 200, RankOverall: intPtr(1)},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: userID, DurationSeconds: 300},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: rivalID, DurationSeconds: 250, RankOverall: intPtr(2)},
	}

	entries, total, err := f.svc.GetLeaderboard(context.Background(), segment.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	assert.Equal(t, userID, entries[0].Effort.UserID)
	assert.Equal(t, 200, entries[0].Effort.DurationSeconds)
	assert.Equal(t, rivalID, entries[1].Effort.UserID)
}

func TestUserRecordsJoinSegments(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	userID := primitive.NewObjectID()
	deletedSegmentID := primitive.NewObjectID()
	now := time.Now()

	f.effortRepo.efforts = []*models.SegmentEffort{
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: userID, DurationSeconds: 200, IsPr: true, AchievedAt: now.Add(-time.Hour)},
		{ID: primitive.NewObjectID(), SegmentID: deletedSegmentID, UserID: userID, DurationSeconds: 300, IsPr: true, AchievedAt: now},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: userID, DurationSeconds: 250, AchievedAt: now},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: primitive.NewObjectID(), DurationSeconds: 100, IsPr: true, AchievedAt: now},
	}

	records, err := f.svc.GetUserRecords(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first; a record on a deleted segment keeps its effort but
	// carries no segment
	assert.Equal(t, 300, records[0].Effort.DurationSeconds)
	assert.Nil(t, records[0].Segment)
	assert.Equal(t, 200, records[1].Effort.DurationSeconds)
	require.NotNil(t, records[1].Segment)
	assert.Equal(t, segment.ID, records[1].Segment.ID)

	truncated, err := f.svc.GetUserRecords(context.Background(), userID, 1)
	require.NoError(t, err)
	require.Len(t, truncated, 1)
	assert.Equal(t, 300, truncated[0].Effort.DurationSeconds)
}

func TestUserKomsOnlyListCrowns(t *testing.T) {
	f := newSegmentFixture(t)
	creatorID := primitive.NewObjectID()

	segment, err := f.svc.Create(context.Background(), creatorID, climbRequest())
	require.NoError(t, err)

	userID := primitive.NewObjectID()
	now := time.Now()

	f.effortRepo.efforts = []*models.SegmentEffort{
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: userID, DurationSeconds: 200, IsKom: true, IsPr: true, AchievedAt: now},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: userID, DurationSeconds: 250, IsPr: true, AchievedAt: now.Add(-time.Hour)},
		{ID: primitive.NewObjectID(), SegmentID: segment.ID, UserID: primitive.NewObjectID(), DurationSeconds: 180, IsKom: true, AchievedAt: now},
	}

	koms, err := f.svc.GetUserKoms(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, koms, 1)

	assert.Equal(t, 200, koms[0].Effort.DurationSeconds)
	require.NotNil(t, koms[0].Segment)
	assert.Equal(t, segment.ID, koms[0].Segment.ID)
}

func TestLeaderboardMissingSegment(t *testing.T) {
	f := newSegmentFixture(t)

	_, _, err := f.svc.GetLeaderboard(context.Background(), primitive.NewObjectID(), nil)
	assert.True(t, apperrors.IsNotFound(err))
}
