package services

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/utils"
	"fittrack/pkg/geometry"
	"fittrack/pkg/logger"
)

// SegmentMatcherService detects which segments a finished activity covered
// and maintains the per-segment leaderboards.
type SegmentMatcherService interface {
	// ProcessActivity returns the efforts it created; replays that find
	// every pair already recorded return an empty slice.
	ProcessActivity(ctx context.Context, activityID primitive.ObjectID) ([]*models.SegmentEffort, error)
}

type segmentMatcherService struct {
	activityRepo interfaces.ActivityRepository
	segmentRepo  interfaces.SegmentRepository
	effortRepo   interfaces.EffortRepository
	engine       geometry.Engine
	locker       Locker
	cfg          *config.MatcherConfig
	log          *logger.Logger
}

func NewSegmentMatcherService(
	activityRepo interfaces.ActivityRepository,
	segmentRepo interfaces.SegmentRepository,
	effortRepo interfaces.EffortRepository,
	engine geometry.Engine,
	locker Locker,
	cfg *config.MatcherConfig,
	log *logger.Logger,
) SegmentMatcherService {
	return &segmentMatcherService{
		activityRepo: activityRepo,
		segmentRepo:  segmentRepo,
		effortRepo:   effortRepo,
		engine:       engine,
		locker:       locker,
		cfg:          cfg,
		log:          log,
	}
}

// ProcessActivity is safe to replay: an existing effort for an
// (activity, segment) pair short-circuits that segment, so reprocessing
// after a crash or duplicate delivery never double-counts.
func (s *segmentMatcherService) ProcessActivity(ctx context.Context, activityID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	log := s.log.WithActivityID(activityID)

	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Warn("activity not found, skipping segment matching")
			return nil, nil
		}
		return nil, apperrors.NewTransientError("load activity", err)
	}

	if !activity.CanMatchSegments() {
		log.Debug("activity not eligible for segment matching")
		return nil, nil
	}

	activityLine, err := geometry.NewLineString(activity.Route.Points())
	if err != nil {
		log.WithError(err).Warn("activity route is not a valid line, skipping")
		return nil, nil
	}

	candidates, err := s.segmentRepo.FindIntersectingRoute(ctx, *activity.Route)
	if err != nil {
		return nil, apperrors.NewTransientError("find candidate segments", err)
	}

	created := []*models.SegmentEffort{}
	for _, segment := range candidates {
		if !segmentMatchesActivityType(segment.Type, activity.Type) {
			continue
		}

		effort, err := s.processSegment(ctx, activity, activityLine, segment)
		if err != nil {
			return nil, err
		}
		if effort != nil {
			created = append(created, effort)
		}
	}

	return created, nil
}

func (s *segmentMatcherService) processSegment(ctx context.Context, activity *models.Activity, activityLine geometry.Geometry, segment *models.Segment) (*models.SegmentEffort, error) {
	log := s.log.WithActivityID(activity.ID).WithSegmentID(segment.ID)

	segmentLine, err := geometry.NewLineString(segment.Route.Points())
	if err != nil {
		log.WithError(err).Warn("segment route is not a valid line, skipping")
		return nil, nil
	}

	overlapPct, err := s.overlapPercentage(activityLine, segmentLine, segment.DistanceMeters)
	if err != nil {
		log.WithError(err).Warn("failed to measure overlap, skipping segment")
		return nil, nil
	}
	if overlapPct < s.cfg.MinOverlapPercent {
		return nil, nil
	}

	estimated, ok := estimateEffortSeconds(activity, segment, overlapPct)
	if !ok {
		log.Warn("cannot estimate effort duration, skipping segment")
		return nil, nil
	}

	var created *models.SegmentEffort
	err = s.locker.WithLock(ctx, utils.SegmentLockPrefix+segment.ID.Hex(), func() error {
		existing, err := s.effortRepo.GetByActivityAndSegment(ctx, activity.ID, segment.ID)
		if err != nil {
			return apperrors.NewTransientError("check existing effort", err)
		}
		if existing != nil {
			log.Debug("effort already recorded for activity and segment")
			return nil
		}

		effort := buildEffort(activity, segment, estimated, overlapPct)
		if err := s.effortRepo.Create(ctx, effort); err != nil {
			return apperrors.NewTransientError("create effort", err)
		}
		created = effort

		if err := s.recomputeRankings(ctx, segment.ID); err != nil {
			return err
		}

		if err := s.segmentRepo.IncrementTotalAttempts(ctx, segment.ID); err != nil {
			return apperrors.NewTransientError("increment total attempts", err)
		}

		athletes, err := s.effortRepo.CountUniqueAthletes(ctx, segment.ID)
		if err != nil {
			return apperrors.NewTransientError("count unique athletes", err)
		}
		if err := s.segmentRepo.SetUniqueAthletes(ctx, segment.ID, athletes); err != nil {
			return apperrors.NewTransientError("set unique athletes", err)
		}

		log.LogSegmentEvent(segment.ID, utils.EventEffortCreated, map[string]interface{}{
			"duration_seconds": effort.DurationSeconds,
			"overlap_percent":  math.Round(overlapPct*100) / 100,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// overlapPercentage measures how much of the segment the activity route
// covers, as a percentage of the segment's recorded distance.
func (s *segmentMatcherService) overlapPercentage(activityLine, segmentLine geometry.Geometry, segmentDistance float64) (float64, error) {
	if segmentDistance <= 0 {
		return 0, fmt.Errorf("segment distance must be positive")
	}

	overlap := s.engine.Intersection(activityLine, segmentLine)
	if overlap == nil {
		return 0, nil
	}

	pct := s.engine.LengthMeters(*overlap) / segmentDistance * 100
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// estimateEffortSeconds derives the segment time from the share of the
// activity the segment represents. Activities without positive distance and
// duration cannot be apportioned.
func estimateEffortSeconds(activity *models.Activity, segment *models.Segment, overlapPct float64) (int, bool) {
	if activity.DistanceMeters <= 0 || activity.DurationSeconds <= 0 {
		return 0, false
	}

	coveredMeters := segment.DistanceMeters * overlapPct / 100
	segmentRatio := coveredMeters / activity.DistanceMeters

	estimated := int(math.Round(float64(activity.DurationSeconds) * segmentRatio))
	if estimated < utils.MinEstimatedEffortSeconds {
		estimated = utils.MinEstimatedEffortSeconds
	}
	return estimated, true
}

// buildEffort computes average speed over the full segment distance, not
// the covered share, and stamps the effort with the activity's completion
// time.
func buildEffort(activity *models.Activity, segment *models.Segment, estimatedSeconds int, overlapPct float64) *models.SegmentEffort {
	avgSpeedKmh := segment.DistanceMeters / float64(estimatedSeconds) * 3.6

	achievedAt := activity.StartedAt
	if activity.CompletedAt != nil {
		achievedAt = *activity.CompletedAt
	}

	return &models.SegmentEffort{
		SegmentID:       segment.ID,
		ActivityID:      activity.ID,
		UserID:          activity.UserID,
		DurationSeconds: estimatedSeconds,
		AvgSpeedKmh:     math.Round(avgSpeedKmh*100) / 100,
		AvgHeartRate:    activity.AvgHeartRate,
		AchievedAt:      achievedAt,
	}
}

// recomputeRankings rewrites is_pr, is_kom and rank_overall for every
// effort on the segment. PR is each user's fastest effort, KOM the fastest
// overall with earliest achieved_at breaking ties, and rank_overall numbers
// each user's best effort 1..N by ascending duration.
func (s *segmentMatcherService) recomputeRankings(ctx context.Context, segmentID primitive.ObjectID) error {
	efforts, err := s.effortRepo.ListBySegment(ctx, segmentID)
	if err != nil {
		return apperrors.NewTransientError("list efforts for ranking", err)
	}
	if len(efforts) == 0 {
		return nil
	}

	// Efforts arrive sorted by duration then achieved_at, so the first
	// effort seen per user is that user's best, and the first overall is
	// the KOM.
	rankings := make([]interfaces.EffortRanking, 0, len(efforts))
	seenUsers := make(map[primitive.ObjectID]bool)
	rank := 0

	for i, effort := range efforts {
		ranking := interfaces.EffortRanking{EffortID: effort.ID}

		if !seenUsers[effort.UserID] {
			seenUsers[effort.UserID] = true
			ranking.IsPr = true
			rank++
			r := rank
			ranking.RankOverall = &r
		}
		if i == 0 {
			ranking.IsKom = true
		}

		rankings = append(rankings, ranking)
	}

	if err := s.effortRepo.UpdateRankings(ctx, rankings); err != nil {
		return apperrors.NewTransientError("update rankings", err)
	}

	return nil
}

func segmentMatchesActivityType(segmentType models.SegmentType, activityType models.ActivityType) bool {
	switch segmentType {
	case models.SegmentTypeRun:
		return activityType == models.ActivityTypeRun
	case models.SegmentTypeRide:
		return activityType == models.ActivityTypeRide
	}
	return false
}
