package services

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/utils"
	"fittrack/internal/validators"
	"fittrack/pkg/geometry"
	"fittrack/pkg/logger"
	"fittrack/pkg/maps"
)

// LeaderboardEntry is one user's best effort on a segment joined with the
// athlete's display data.
type LeaderboardEntry struct {
	Effort *models.SegmentEffort `json:"effort"`
	User   *models.User          `json:"user,omitempty"`
}

// UserAchievement is one of a user's record efforts joined with the
// segment it was set on. Segment is nil when the segment has since been
// deleted.
type UserAchievement struct {
	Effort  *models.SegmentEffort `json:"effort"`
	Segment *models.Segment       `json:"segment,omitempty"`
}

// segmentSortFields are the only columns the list endpoint may sort by.
var segmentSortFields = []string{"created_at", "name", "distance_meters", "total_attempts"}

type SegmentService interface {
	Create(ctx context.Context, creatorID primitive.ObjectID, req *validators.SegmentCreateRequest) (*models.Segment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Segment, error)
	List(ctx context.Context, segmentType *models.SegmentType, params *utils.PaginationParams) ([]*models.Segment, int64, error)
	Update(ctx context.Context, id, userID primitive.ObjectID, req *validators.SegmentUpdateRequest) (*models.Segment, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	GetLeaderboard(ctx context.Context, id primitive.ObjectID, params *utils.PaginationParams) ([]LeaderboardEntry, int64, error)
	GetUserEfforts(ctx context.Context, segmentID, userID primitive.ObjectID) ([]*models.SegmentEffort, error)
	GetUserRecords(ctx context.Context, userID primitive.ObjectID, limit int) ([]UserAchievement, error)
	GetUserKoms(ctx context.Context, userID primitive.ObjectID) ([]UserAchievement, error)
}

type segmentService struct {
	segmentRepo interfaces.SegmentRepository
	effortRepo  interfaces.EffortRepository
	userRepo    interfaces.UserRepository
	engine      geometry.Engine
	geocoder    maps.Geocoder
	log         *logger.Logger
}

func NewSegmentService(
	segmentRepo interfaces.SegmentRepository,
	effortRepo interfaces.EffortRepository,
	userRepo interfaces.UserRepository,
	engine geometry.Engine,
	geocoder maps.Geocoder,
	log *logger.Logger,
) SegmentService {
	return &segmentService{
		segmentRepo: segmentRepo,
		effortRepo:  effortRepo,
		userRepo:    userRepo,
		engine:      engine,
		geocoder:    geocoder,
		log:         log,
	}
}

// Create measures the submitted route, derives grade and elevation stats
// and reverse-geocodes the start point for the city/state labels. Geocoding
// failures do not block creation.
func (s *segmentService) Create(ctx context.Context, creatorID primitive.ObjectID, req *validators.SegmentCreateRequest) (*models.Segment, error) {
	points := routePointsFromRequest(req.Route)

	line, err := geometry.NewLineString(points)
	if err != nil {
		return nil, apperrors.NewValidationError("route", "route must contain at least two distinct points")
	}

	distance := s.engine.LengthMeters(line)
	if distance < models.MinSegmentDistanceMeters || distance > models.MaxSegmentDistanceMeters {
		return nil, apperrors.NewValidationError("route", "segment distance must be between 100 m and 100 km")
	}

	avgGrade, maxGrade, elevationGain := gradeStats(points, distance)

	now := time.Now()
	segment := &models.Segment{
		CreatorID:       creatorID,
		Name:            req.Name,
		Description:     req.Description,
		Type:            models.SegmentType(req.Type),
		Route:           models.GeoLineStringFromPoints(points),
		DistanceMeters:  math.Round(distance*100) / 100,
		AvgGradePercent: avgGrade,
		MaxGradePercent: maxGrade,
		ElevationGain:   elevationGain,
		IsHazardous:     req.IsHazardous,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if place, err := s.geocoder.ReverseGeocode(ctx, points[0].Lat, points[0].Lng); err != nil {
		s.log.WithError(err).Warn("reverse geocoding failed, creating segment without location labels")
	} else {
		segment.City = place.City
		segment.State = place.State
	}

	if err := s.segmentRepo.Create(ctx, segment); err != nil {
		return nil, err
	}

	s.log.WithSegmentID(segment.ID).WithUserID(creatorID).Info("segment created")
	return segment, nil
}

func (s *segmentService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Segment, error) {
	return s.segmentRepo.GetByID(ctx, id)
}

func (s *segmentService) List(ctx context.Context, segmentType *models.SegmentType, params *utils.PaginationParams) ([]*models.Segment, int64, error) {
	if segmentType != nil && !segmentType.Valid() {
		return nil, 0, apperrors.NewValidationError("type", "segment type must be run or ride")
	}
	if params != nil {
		if err := params.EnsureSortAllowed(segmentSortFields...); err != nil {
			return nil, 0, err
		}
	}
	return s.segmentRepo.List(ctx, segmentType, params)
}

// Update applies metadata changes. Only the creator may update a segment;
// the route itself is immutable because recorded efforts depend on it.
func (s *segmentService) Update(ctx context.Context, id, userID primitive.ObjectID, req *validators.SegmentUpdateRequest) (*models.Segment, error) {
	segment, err := s.segmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if segment.CreatorID != userID {
		return nil, apperrors.NewValidationError("creator", "only the creator can update a segment")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsHazardous != nil {
		updates["is_hazardous"] = *req.IsHazardous
	}

	if err := s.segmentRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	return s.segmentRepo.GetByID(ctx, id)
}

func (s *segmentService) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	segment, err := s.segmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if segment.CreatorID != userID {
		return apperrors.NewValidationError("creator", "only the creator can delete a segment")
	}

	if err := s.segmentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithSegmentID(id).WithUserID(userID).Info("segment deleted")
	return nil
}

// GetLeaderboard returns one entry per user, that user's best effort,
// fastest first. Missing users leave the entry's User nil.
func (s *segmentService) GetLeaderboard(ctx context.Context, id primitive.ObjectID, params *utils.PaginationParams) ([]LeaderboardEntry, int64, error) {
	if _, err := s.segmentRepo.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}

	skip, limit := 0, utils.DefaultPageSize
	if params != nil {
		skip, limit = params.GetSkip(), params.GetLimit()
	}

	efforts, total, err := s.effortRepo.ListRankedBySegment(ctx, id, skip, limit)
	if err != nil {
		return nil, 0, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(efforts))
	for _, effort := range efforts {
		userIDs = append(userIDs, effort.UserID)
	}

	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		s.log.WithError(err).Warn("failed to load leaderboard users, returning efforts only")
		users = map[primitive.ObjectID]*models.User{}
	}

	entries := make([]LeaderboardEntry, 0, len(efforts))
	for _, effort := range efforts {
		entries = append(entries, LeaderboardEntry{
			Effort: effort,
			User:   users[effort.UserID],
		})
	}

	return entries, total, nil
}

func (s *segmentService) GetUserEfforts(ctx context.Context, segmentID, userID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	if _, err := s.segmentRepo.GetByID(ctx, segmentID); err != nil {
		return nil, err
	}
	return s.effortRepo.ListBySegmentAndUser(ctx, segmentID, userID)
}

// GetUserRecords returns the user's personal records across all segments,
// newest first, truncated to limit.
func (s *segmentService) GetUserRecords(ctx context.Context, userID primitive.ObjectID, limit int) ([]UserAchievement, error) {
	if limit <= 0 {
		limit = utils.DefaultPageSize
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}
	efforts, err := s.effortRepo.ListUserRecords(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.joinSegments(ctx, efforts)
}

// GetUserKoms returns the segment crowns the user currently holds.
func (s *segmentService) GetUserKoms(ctx context.Context, userID primitive.ObjectID) ([]UserAchievement, error) {
	efforts, err := s.effortRepo.ListUserKoms(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.joinSegments(ctx, efforts)
}

func (s *segmentService) joinSegments(ctx context.Context, efforts []*models.SegmentEffort) ([]UserAchievement, error) {
	segmentIDs := make([]primitive.ObjectID, 0, len(efforts))
	for _, effort := range efforts {
		segmentIDs = append(segmentIDs, effort.SegmentID)
	}

	segments, err := s.segmentRepo.GetByIDs(ctx, segmentIDs)
	if err != nil {
		return nil, err
	}

	achievements := make([]UserAchievement, 0, len(efforts))
	for _, effort := range efforts {
		achievements = append(achievements, UserAchievement{
			Effort:  effort,
			Segment: segments[effort.SegmentID],
		})
	}

	return achievements, nil
}

func routePointsFromRequest(route []validators.RoutePointRequest) []geometry.Point {
	points := make([]geometry.Point, 0, len(route))
	for _, p := range route {
		point := geometry.Point{Lat: p.Lat, Lng: p.Lng}
		if p.Alt != nil {
			alt := *p.Alt
			point.Alt = &alt
		}
		points = append(points, point)
	}
	return points
}

// gradeStats derives average grade, steepest section grade and total
// climb from the altitude profile. Routes without altitude data report
// zeros.
func gradeStats(points []geometry.Point, totalDistance float64) (avgGrade, maxGrade, elevationGain float64) {
	var netElevation float64

	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		if prev.Alt == nil || curr.Alt == nil {
			continue
		}

		delta := *curr.Alt - *prev.Alt
		netElevation += delta
		if delta > 0 {
			elevationGain += delta
		}

		d := geometry.Haversine(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
		if d > 0 {
			grade := delta / d * 100
			if grade > maxGrade {
				maxGrade = grade
			}
		}
	}

	if totalDistance > 0 {
		avgGrade = netElevation / totalDistance * 100
	}

	return math.Round(avgGrade*100) / 100, math.Round(maxGrade*100) / 100, math.Round(elevationGain*100) / 100
}
