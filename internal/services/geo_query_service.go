package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/units"
	"fittrack/internal/utils"
	"fittrack/pkg/geometry"
	"fittrack/pkg/logger"
)

// SegmentMatch pairs a candidate segment with the measured route overlap.
type SegmentMatch struct {
	Segment               *models.Segment `json:"segment"`
	OverlapPercentage     float64         `json:"overlap_percentage"`
	OverlapDistanceMeters float64         `json:"overlap_distance_meters"`
}

type GeoQueryService interface {
	FindSegmentsNearPoint(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]*models.Segment, error)
	FindSegmentsWithinBox(ctx context.Context, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Segment, error)
	FindActivitiesNearPoint(ctx context.Context, field interfaces.GeometryField, lat, lng, radiusMeters float64, limit int) ([]*models.Activity, error)
	FindIntersectingSegments(ctx context.Context, activityID primitive.ObjectID) ([]SegmentMatch, error)
	DistanceBetweenActivities(ctx context.Context, firstID, secondID primitive.ObjectID) (float64, error)
	FindSimilarRouteActivities(ctx context.Context, activityID primitive.ObjectID, limit int) ([]*models.Activity, error)
}

type geoQueryService struct {
	activityRepo interfaces.ActivityRepository
	segmentRepo  interfaces.SegmentRepository
	engine       geometry.Engine
	log          *logger.Logger
}

func NewGeoQueryService(
	activityRepo interfaces.ActivityRepository,
	segmentRepo interfaces.SegmentRepository,
	engine geometry.Engine,
	log *logger.Logger,
) GeoQueryService {
	return &geoQueryService{
		activityRepo: activityRepo,
		segmentRepo:  segmentRepo,
		engine:       engine,
		log:          log,
	}
}

func (s *geoQueryService) FindSegmentsNearPoint(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]*models.Segment, error) {
	if _, err := units.CoordinatesFrom(lat, lng, nil); err != nil {
		return nil, err
	}

	return s.segmentRepo.FindNearPoint(ctx, lat, lng, clampRadius(radiusMeters), clampLimit(limit))
}

func (s *geoQueryService) FindSegmentsWithinBox(ctx context.Context, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Segment, error) {
	if _, err := units.CoordinatesFrom(minLat, minLng, nil); err != nil {
		return nil, err
	}
	if _, err := units.CoordinatesFrom(maxLat, maxLng, nil); err != nil {
		return nil, err
	}
	if minLat > maxLat || minLng > maxLng {
		return nil, apperrors.NewValidationError("bounds", "min corner must be south-west of max corner")
	}

	return s.segmentRepo.FindWithinBox(ctx, minLat, minLng, maxLat, maxLng, clampLimit(limit))
}

func (s *geoQueryService) FindActivitiesNearPoint(ctx context.Context, field interfaces.GeometryField, lat, lng, radiusMeters float64, limit int) ([]*models.Activity, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if _, err := units.CoordinatesFrom(lat, lng, nil); err != nil {
		return nil, err
	}

	return s.activityRepo.FindNearPoint(ctx, field, lat, lng, clampRadius(radiusMeters), clampLimit(limit))
}

// FindIntersectingSegments measures the overlap between the activity's route
// and every spatially intersecting segment, regardless of the matcher's
// acceptance threshold.
func (s *geoQueryService) FindIntersectingSegments(ctx context.Context, activityID primitive.ObjectID) ([]SegmentMatch, error) {
	activityLine, _, err := s.routeLine(ctx, activityID)
	if err != nil {
		return nil, err
	}

	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.segmentRepo.FindIntersectingRoute(ctx, *activity.Route)
	if err != nil {
		return nil, err
	}

	matches := make([]SegmentMatch, 0, len(candidates))
	for _, segment := range candidates {
		segmentLine, err := geometry.NewLineString(segment.Route.Points())
		if err != nil {
			s.log.WithSegmentID(segment.ID).Warn("segment route is not a valid line, skipping")
			continue
		}

		overlap := s.engine.Intersection(activityLine, segmentLine)
		if overlap == nil {
			continue
		}
		overlapLen := s.engine.LengthMeters(*overlap)

		pct := 0.0
		if segment.DistanceMeters > 0 {
			pct = overlapLen / segment.DistanceMeters * 100
			if pct > 100 {
				pct = 100
			}
		}

		matches = append(matches, SegmentMatch{
			Segment:               segment,
			OverlapPercentage:     pct,
			OverlapDistanceMeters: overlapLen,
		})
	}

	return matches, nil
}

func (s *geoQueryService) DistanceBetweenActivities(ctx context.Context, firstID, secondID primitive.ObjectID) (float64, error) {
	firstLine, _, err := s.routeLine(ctx, firstID)
	if err != nil {
		return 0, err
	}
	secondLine, _, err := s.routeLine(ctx, secondID)
	if err != nil {
		return 0, err
	}

	return s.engine.DistanceMeters(firstLine, secondLine), nil
}

// FindSimilarRouteActivities returns activities whose route mutually covers
// the reference activity's route. Candidates come from a spatial search
// around the reference route's start point.
func (s *geoQueryService) FindSimilarRouteActivities(ctx context.Context, activityID primitive.ObjectID, limit int) ([]*models.Activity, error) {
	refLine, activity, err := s.routeLine(ctx, activityID)
	if err != nil {
		return nil, err
	}

	refLen := s.engine.LengthMeters(refLine)
	if refLen <= 0 {
		return nil, apperrors.NewValidationError("activity", "activity route has zero length")
	}

	start := refLine.Coordinates[0]
	candidates, err := s.activityRepo.FindNearPoint(ctx, interfaces.GeometryFieldRoute, start.Lat, start.Lng, utils.DefaultSearchRadiusMeters, utils.DefaultGeoQueryLimit)
	if err != nil {
		return nil, err
	}

	limit = clampLimit(limit)
	var similar []*models.Activity
	for _, candidate := range candidates {
		if candidate.ID == activity.ID || candidate.Route == nil {
			continue
		}

		candidateLine, err := geometry.NewLineString(candidate.Route.Points())
		if err != nil {
			continue
		}

		if s.mutualCoverage(refLine, refLen, candidateLine) {
			similar = append(similar, candidate)
			if len(similar) >= limit {
				break
			}
		}
	}

	return similar, nil
}

// mutualCoverage reports whether each route covers the other above the
// default overlap threshold.
func (s *geoQueryService) mutualCoverage(refLine geometry.Geometry, refLen float64, candidateLine geometry.Geometry) bool {
	candidateLen := s.engine.LengthMeters(candidateLine)
	if candidateLen <= 0 {
		return false
	}

	if s.coveragePct(refLine, candidateLine, candidateLen) < utils.DefaultMinOverlapPercent {
		return false
	}

	return s.coveragePct(candidateLine, refLine, refLen) >= utils.DefaultMinOverlapPercent
}

func (s *geoQueryService) coveragePct(coveringLine, coveredLine geometry.Geometry, coveredLen float64) float64 {
	overlap := s.engine.Intersection(coveringLine, coveredLine)
	if overlap == nil {
		return 0
	}

	return s.engine.LengthMeters(*overlap) / coveredLen * 100
}

// routeLine loads an activity and converts its stored route to an engine
// line.
func (s *geoQueryService) routeLine(ctx context.Context, activityID primitive.ObjectID) (geometry.Geometry, *models.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return geometry.Geometry{}, nil, err
	}
	if activity.Route == nil {
		return geometry.Geometry{}, nil, apperrors.NewValidationError("activity", "activity has no route")
	}

	line, err := geometry.NewLineString(activity.Route.Points())
	if err != nil {
		return geometry.Geometry{}, nil, apperrors.NewValidationError("activity", "activity route is not a valid line")
	}

	return line, activity, nil
}

func clampRadius(radiusMeters float64) float64 {
	if radiusMeters <= 0 {
		return utils.DefaultSearchRadiusMeters
	}
	if radiusMeters > utils.MaxSearchRadiusMeters {
		return utils.MaxSearchRadiusMeters
	}
	return radiusMeters
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > utils.DefaultGeoQueryLimit {
		return utils.DefaultGeoQueryLimit
	}
	return limit
}
