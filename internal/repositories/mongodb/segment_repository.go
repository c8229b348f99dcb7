package mongodb

import (
	"context"
	"fmt"
	"time"

	"fittrack/internal/apperrors"
	"fittrack/internal/models"
	"fittrack/internal/repositories/interfaces"
	"fittrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type segmentRepository struct {
	collection *mongo.Collection
}

func NewSegmentRepository(db *mongo.Database) interfaces.SegmentRepository {
	return &segmentRepository{
		collection: db.Collection("segments"),
	}
}

func (r *segmentRepository) Create(ctx context.Context, segment *models.Segment) error {
	if segment.ID.IsZero() {
		segment.ID = primitive.NewObjectID()
	}
	now := time.Now()
	segment.CreatedAt = now
	segment.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, segment)
	if err != nil {
		return fmt.Errorf("failed to create segment: %w", err)
	}

	return nil
}

func (r *segmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Segment, error) {
	var segment models.Segment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&segment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NewNotFoundError("segment", id.Hex())
		}
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}

	return &segment, nil
}

func (r *segmentRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Segment, error) {
	segments := make(map[primitive.ObjectID]*models.Segment, len(ids))
	if len(ids) == 0 {
		return segments, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get segments: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var segment models.Segment
		if err := cursor.Decode(&segment); err != nil {
			return nil, fmt.Errorf("failed to decode segment: %w", err)
		}
		segments[segment.ID] = &segment
	}

	return segments, nil
}

func (r *segmentRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update segment: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError("segment", id.Hex())
	}

	return nil
}

func (r *segmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NewNotFoundError("segment", id.Hex())
	}

	return nil
}

func (r *segmentRepository) List(ctx context.Context, segmentType *models.SegmentType, params *utils.PaginationParams) ([]*models.Segment, int64, error) {
	filter := bson.M{}
	if segmentType != nil {
		filter["type"] = *segmentType
	}
	if search := params.GetSearchFilter([]string{"name", "city"}); len(search) > 0 {
		for k, v := range search {
			filter[k] = v
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count segments: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find segments: %w", err)
	}
	defer cursor.Close(ctx)

	segments, err := decodeSegments(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return segments, total, nil
}

// FindIntersectingRoute returns candidate segments whose stored route
// intersects the given line. This is the cheap spatial pre-filter; precise
// overlap measurement happens in the matcher.
func (r *segmentRepository) FindIntersectingRoute(ctx context.Context, route models.GeoLineString) ([]*models.Segment, error) {
	filter := bson.M{
		"route": bson.M{
			"$geoIntersects": bson.M{
				"$geometry": bson.M{
					"type":        route.Type,
					"coordinates": route.Coordinates,
				},
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find intersecting segments: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSegments(ctx, cursor)
}

func (r *segmentRepository) FindNearPoint(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]*models.Segment, error) {
	filter := bson.M{
		"route": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": radiusMeters,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, findLimitOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby segments: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSegments(ctx, cursor)
}

func (r *segmentRepository) FindWithinBox(ctx context.Context, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Segment, error) {
	filter := bson.M{
		"route": bson.M{
			"$geoWithin": bson.M{
				"$box": [][]float64{
					{minLng, minLat},
					{maxLng, maxLat},
				},
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, findLimitOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find segments in box: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSegments(ctx, cursor)
}

func (r *segmentRepository) IncrementTotalAttempts(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"total_attempts": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment total attempts: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError("segment", id.Hex())
	}

	return nil
}

func (r *segmentRepository) SetUniqueAthletes(ctx context.Context, id primitive.ObjectID, count int64) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"unique_athletes": count, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set unique athletes: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError("segment", id.Hex())
	}

	return nil
}

func decodeSegments(ctx context.Context, cursor *mongo.Cursor) ([]*models.Segment, error) {
	var segments []*models.Segment
	for cursor.Next(ctx) {
		var segment models.Segment
		if err := cursor.Decode(&segment); err != nil {
			return nil, fmt.Errorf("failed to decode segment: %w", err)
		}
		segments = append(segments, &segment)
	}

	return segments, nil
}
