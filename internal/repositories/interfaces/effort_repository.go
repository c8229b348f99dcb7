package interfaces

import (
	"context"

	"fittrack/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EffortRanking carries the recomputed ranking fields written back after a
// new effort lands on a segment.
type EffortRanking struct {
	EffortID    primitive.ObjectID
	IsKom       bool
	IsPr        bool
	RankOverall *int
}

type EffortRepository interface {
	Create(ctx context.Context, effort *models.SegmentEffort) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SegmentEffort, error)
	GetByActivityAndSegment(ctx context.Context, activityID, segmentID primitive.ObjectID) (*models.SegmentEffort, error)

	// ListBySegment returns every effort for the segment ordered by
	// duration ascending, then achieved_at ascending for ties.
	ListBySegment(ctx context.Context, segmentID primitive.ObjectID) ([]*models.SegmentEffort, error)

	// ListRankedBySegment returns the leaderboard page: each user's best
	// effort, ordered by rank_overall ascending. Unranked attempts are
	// excluded; total counts ranked efforts only.
	ListRankedBySegment(ctx context.Context, segmentID primitive.ObjectID, skip, limit int) ([]*models.SegmentEffort, int64, error)
	ListBySegmentAndUser(ctx context.Context, segmentID, userID primitive.ObjectID) ([]*models.SegmentEffort, error)

	// ListUserRecords returns the user's personal records, newest first,
	// truncated to limit when limit is positive.
	ListUserRecords(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.SegmentEffort, error)
	// ListUserKoms returns every segment crown the user currently holds,
	// newest first.
	ListUserKoms(ctx context.Context, userID primitive.ObjectID) ([]*models.SegmentEffort, error)

	CountUniqueAthletes(ctx context.Context, segmentID primitive.ObjectID) (int64, error)
	UpdateRankings(ctx context.Context, rankings []EffortRanking) error
}
