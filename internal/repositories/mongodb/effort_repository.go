package mongodb

import (
	"context"
	"fmt"
	"time"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type effortRepository struct {
	collection *mongo.Collection
}

func NewEffortRepository(db *mongo.Database) interfaces.EffortRepository {
	return &effortRepository{
		collection: db.Collection("segment_efforts"),
	}
}

func (r *effortRepository) Create(ctx context.Context, effort *models.SegmentEffort) error {
	if effort.ID.IsZero() {
		effort.ID = primitive.NewObjectID()
	}
	now := time.Now()
	effort.CreatedAt = now
	effort.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, effort)
	if err != nil {
		return fmt.Errorf("failed to create segment effort: %w", err)
	}

	return nil
}

func (r *effortRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SegmentEffort, error) {
	var effort models.SegmentEffort
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&effort)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NewNotFoundError("segment effort", id.Hex())
		}
		return nil, fmt.Errorf("failed to get segment effort: %w", err)
	}

	return &effort, nil
}

// GetByActivityAndSegment returns (nil, nil) when no effort exists; the
// matcher uses that to detect already-processed pairs.
func (r *effortRepository) GetByActivityAndSegment(ctx context.Context, activityID, segmentID primitive.ObjectID) (*models.SegmentEffort, error) {
	var effort models.SegmentEffort
	err := r.collection.FindOne(ctx, bson.M{
		"activity_id": activityID,
		"segment_id":  segmentID,
	}).Decode(&effort)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get segment effort: %w", err)
	}

	return &effort, nil
}

func (r *effortRepository) ListBySegment(ctx context.Context, segmentID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "duration_seconds", Value: 1},
		{Key: "achieved_at", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"segment_id": segmentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list segment efforts: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeEfforts(ctx, cursor)
}

// ListRankedBySegment relies on the ranking recompute having marked each
// user's best effort with rank_overall; everything else stays off the
// leaderboard.
func (r *effortRepository) ListRankedBySegment(ctx context.Context, segmentID primitive.ObjectID, skip, limit int) ([]*models.SegmentEffort, int64, error) {
	filter := bson.M{
		"segment_id":   segmentID,
		"rank_overall": bson.M{"$ne": nil},
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ranked efforts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rank_overall", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ranked efforts: %w", err)
	}
	defer cursor.Close(ctx)

	efforts, err := decodeEfforts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return efforts, total, nil
}

func (r *effortRepository) ListUserRecords(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.SegmentEffort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "achieved_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "is_pr": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal records: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeEfforts(ctx, cursor)
}

func (r *effortRepository) ListUserKoms(ctx context.Context, userID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "achieved_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "is_kom": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list koms: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeEfforts(ctx, cursor)
}

func (r *effortRepository) ListBySegmentAndUser(ctx context.Context, segmentID, userID primitive.ObjectID) ([]*models.SegmentEffort, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "duration_seconds", Value: 1},
		{Key: "achieved_at", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{
		"segment_id": segmentID,
		"user_id":    userID,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list user efforts on segment: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeEfforts(ctx, cursor)
}

func (r *effortRepository) CountUniqueAthletes(ctx context.Context, segmentID primitive.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"segment_id": segmentID}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id"}}},
		{{Key: "$count", Value: "athletes"}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to count unique athletes: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Athletes int64 `bson:"athletes"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode athlete count: %w", err)
		}
	}

	return result.Athletes, nil
}

// UpdateRankings persists a full ranking recompute in one bulk write.
func (r *effortRepository) UpdateRankings(ctx context.Context, rankings []interfaces.EffortRanking) error {
	if len(rankings) == 0 {
		return nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(rankings))
	for _, ranking := range rankings {
		update := bson.M{
			"is_kom":     ranking.IsKom,
			"is_pr":      ranking.IsPr,
			"updated_at": now,
		}
		if ranking.RankOverall != nil {
			update["rank_overall"] = *ranking.RankOverall
		} else {
			update["rank_overall"] = nil
		}

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": ranking.EffortID}).
			SetUpdate(bson.M{"$set": update}))
	}

	_, err := r.collection.BulkWrite(ctx, writes)
	if err != nil {
		return fmt.Errorf("failed to update effort rankings: %w", err)
	}

	return nil
}

func decodeEfforts(ctx context.Context, cursor *mongo.Cursor) ([]*models.SegmentEffort, error) {
	var efforts []*models.SegmentEffort
	for cursor.Next(ctx) {
		var effort models.SegmentEffort
		if err := cursor.Decode(&effort); err != nil {
			return nil, fmt.Errorf("failed to decode segment effort: %w", err)
		}
		efforts = append(efforts, &effort)
	}

	return efforts, nil
}
