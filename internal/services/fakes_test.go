package services

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/utils"
	"fittrack/pkg/logger"
	"fittrack/pkg/queue"
)

func newTestLogger() *logger.Logger {
	l, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		panic(err)
	}
	l.SetOutput(io.Discard)
	return l
}

// fakeSessionCache stores serialized sessions in memory and reports the
// TTL used on the last write.
type fakeSessionCache struct {
	storage map[string][]byte
	lastTTL time.Duration
	sets    int
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{storage: map[string][]byte{}}
}

func (f *fakeSessionCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.storage[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeSessionCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.storage[key] = raw
	f.lastTTL = expiration
	f.sets++
	return nil
}

func (f *fakeSessionCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.storage, key)
	}
	return nil
}

// fakeLocker runs the critical section inline and records the keys it was
// asked to lock.
type fakeLocker struct {
	keys []string
}

func (f *fakeLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	f.keys = append(f.keys, key)
	return fn()
}

type fakePublisher struct {
	messages []queue.ActivityCompletedMessage
	err      error
}

func (f *fakePublisher) PublishActivityCompleted(ctx context.Context, msg queue.ActivityCompletedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type broadcastEvent struct {
	sessionID  string
	updateType string
	data       map[string]interface{}
}

type fakeBroadcaster struct {
	events []broadcastEvent
}

func (f *fakeBroadcaster) SendTrackingUpdate(sessionID string, updateType string, data map[string]interface{}) {
	f.events = append(f.events, broadcastEvent{sessionID: sessionID, updateType: updateType, data: data})
}

func (f *fakeBroadcaster) eventTypes() []string {
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.updateType)
	}
	return types
}

type fakeActivityRepo struct {
	activities map[primitive.ObjectID]*models.Activity
	nearby     []*models.Activity
	createErr  error
	getErr     error
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: map[primitive.ObjectID]*models.Activity{}}
}

func (f *fakeActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if f.createErr != nil {
		return f.createErr
	}
	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	f.activities[activity.ID] = activity
	return nil
}

func (f *fakeActivityRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	activity, ok := f.activities[id]
	if !ok || activity.DeletedAt != nil {
		return nil, apperrors.NewNotFoundError("activity", id.Hex())
	}
	return activity, nil
}

func (f *fakeActivityRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	activity, ok := f.activities[id]
	if !ok {
		return apperrors.NewNotFoundError("activity", id.Hex())
	}
	if title, ok := updates["title"].(string); ok {
		activity.Title = title
	}
	if description, ok := updates["description"].(string); ok {
		activity.Description = description
	}
	if visibility, ok := updates["visibility"].(string); ok {
		activity.Visibility = models.ActivityVisibility(visibility)
	}
	return nil
}

func (f *fakeActivityRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	activity, ok := f.activities[id]
	if !ok {
		return apperrors.NewNotFoundError("activity", id.Hex())
	}
	now := time.Now()
	activity.DeletedAt = &now
	return nil
}

func (f *fakeActivityRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	var out []*models.Activity
	for _, a := range f.activities {
		if a.UserID == userID && a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeActivityRepo) ListPublic(ctx context.Context, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	var out []*models.Activity
	for _, a := range f.activities {
		if a.Visibility == models.VisibilityPublic && a.CompletedAt != nil && a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeActivityRepo) FindNearPoint(ctx context.Context, field interfaces.GeometryField, lat, lng, radiusMeters float64, limit int) ([]*models.Activity, error) {
	return f.nearby, nil
}

func (f *fakeActivityRepo) FindWithinBox(ctx context.Context, field interfaces.GeometryField, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Activity, error) {
	return f.nearby, nil
}

type fakeSegmentRepo struct {
	segments       map[primitive.ObjectID]*models.Segment
	intersecting   []*models.Segment
	attempts       map[primitive.ObjectID]int
	uniqueAthletes map[primitive.ObjectID]int64
	findErr        error
}

func newFakeSegmentRepo() *fakeSegmentRepo {
	return &fakeSegmentRepo{
		segments:       map[primitive.ObjectID]*models.Segment{},
		attempts:       map[primitive.ObjectID]int{},
		uniqueAthletes: map[primitive.ObjectID]int64{},
	}
}

func (f *fakeSegmentRepo) Create(ctx context.Context, segment *models.Segment) error {
	if segment.ID.IsZero() {
		segment.ID = primitive.NewObjectID()
	}
	f.segments[segment.ID] = segment
	return nil
}

func (f *fakeSegmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Segment, error) {
	segment, ok := f.segments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("segment", id.Hex())
	}
	return segment, nil
}

func (f *fakeSegmentRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Segment, error) {
	out := map[primitive.ObjectID]*models.Segment{}
	for _, id := range ids {
		if segment, ok := f.segments[id]; ok {
			out[id] = segment
		}
	}
	return out, nil
}

func (f *fakeSegmentRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	segment, ok := f.segments[id]
	if !ok {
		return apperrors.NewNotFoundError("segment", id.Hex())
	}
	if name, ok := updates["name"].(string); ok {
		segment.Name = name
	}
	if description, ok := updates["description"].(string); ok {
		segment.Description = description
	}
	if hazardous, ok := updates["is_hazardous"].(bool); ok {
		segment.IsHazardous = hazardous
	}
	return nil
}

func (f *fakeSegmentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.segments[id]; !ok {
		return apperrors.NewNotFoundError("segment", id.Hex())
	}
	delete(f.segments, id)
	return nil
}

func (f *fakeSegmentRepo) List(ctx context.Context, segmentType *models.SegmentType, params *utils.PaginationParams) ([]*models.Segment, int64, error) {
	var out []*models.Segment
	for _, s := range f.segments {
		if segmentType == nil || s.Type == *segmentType {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSegmentRepo) FindIntersectingRoute(ctx context.Context, route models.GeoLineString) ([]*models.Segment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.intersecting, nil
}

func (f *fakeSegmentRepo) FindNearPoint(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]*models.Segment, error) {
	return f.intersecting, nil
}

func (f *fakeSegmentRepo) FindWithinBox(ctx context.Context, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Segment, error) {
	return f.intersecting, nil
}

func (f *fakeSegmentRepo) IncrementTotalAttempts(ctx context.Context, id primitive.ObjectID) error {
	f.attempts[id]++
	return nil
}

func (f *fakeSegmentRepo) SetUniqueAthletes(ctx context.Context, id primitive.ObjectID, count int64) error {
	f.uniqueAthletes[id] = count
	return nil
}

type fakeEffortRepo struct {
	efforts   []*models.SegmentEffort
	createErr error
	listErr   error
}

func (f *fakeEffortRepo) Create(ctx context.Context, effort *models.SegmentEffort) error {
	if f.createErr != nil {
		return f.createErr
	}
	if effort.ID.IsZero() {
		effort.ID = primitive.NewObjectID()
	}
	f.efforts = append(f.efforts, effort)
	return nil
}

func (f *fakeEffortRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SegmentEffort, error) {
	for _, e := range f.efforts {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.NewNotFoundError("effort", id.Hex())
}

func (f *fakeEffortRepo) GetByActivityAndSegment(ctx context.Context, activityID, segmentID primitive.ObjectID) (*models.SegmentEffort, error) {
	for _, e := range f.efforts {
		if e.ActivityID == activityID && e.SegmentID == segmentID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEffortRepo) ListBySegment(ctx context.Context, segmentID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.SegmentEffort
	for _, e := range f.efforts {
		if e.SegmentID == segmentID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DurationSeconds != out[j].DurationSeconds {
			return out[i].DurationSeconds < out[j].DurationSeconds
		}
		return out[i].AchievedAt.Before(out[j].AchievedAt)
	})
	return out, nil
}

func (f *fakeEffortRepo) ListRankedBySegment(ctx context.Context, segmentID primitive.ObjectID, skip, limit int) ([]*models.SegmentEffort, int64, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var ranked []*models.SegmentEffort
	for _, e := range f.efforts {
		if e.SegmentID == segmentID && e.RankOverall != nil {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].RankOverall < *ranked[j].RankOverall
	})

	total := int64(len(ranked))
	if skip > len(ranked) {
		skip = len(ranked)
	}
	ranked = ranked[skip:]
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, total, nil
}

func (f *fakeEffortRepo) ListUserRecords(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.SegmentEffort, error) {
	var out []*models.SegmentEffort
	for _, e := range f.efforts {
		if e.UserID == userID && e.IsPr {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AchievedAt.After(out[j].AchievedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEffortRepo) ListUserKoms(ctx context.Context, userID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	var out []*models.SegmentEffort
	for _, e := range f.efforts {
		if e.UserID == userID && e.IsKom {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AchievedAt.After(out[j].AchievedAt)
	})
	return out, nil
}

func (f *fakeEffortRepo) ListBySegmentAndUser(ctx context.Context, segmentID, userID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	var out []*models.SegmentEffort
	for _, e := range f.efforts {
		if e.SegmentID == segmentID && e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEffortRepo) CountUniqueAthletes(ctx context.Context, segmentID primitive.ObjectID) (int64, error) {
	seen := map[primitive.ObjectID]bool{}
	for _, e := range f.efforts {
		if e.SegmentID == segmentID {
			seen[e.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

func (f *fakeEffortRepo) UpdateRankings(ctx context.Context, rankings []interfaces.EffortRanking) error {
	byID := map[primitive.ObjectID]interfaces.EffortRanking{}
	for _, r := range rankings {
		byID[r.EffortID] = r
	}
	for _, e := range f.efforts {
		if r, ok := byID[e.ID]; ok {
			e.IsKom = r.IsKom
			e.IsPr = r.IsPr
			e.RankOverall = r.RankOverall
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", id.Hex())
	}
	return user, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	out := map[primitive.ObjectID]*models.User{}
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}
