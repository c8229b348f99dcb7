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

type activityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) interfaces.ActivityRepository {
	return &activityRepository{
		collection: db.Collection("activities"),
	}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	now := time.Now()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error) {
	var activity models.Activity
	err := r.collection.FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&activity)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NewNotFoundError("activity", id.Hex())
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return &activity, nil
}

func (r *activityRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		notDeleted(bson.M{"_id": id}),
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError("activity", id.Hex())
	}

	return nil
}

func (r *activityRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		notDeleted(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError("activity", id.Hex())
	}

	return nil
}

func (r *activityRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	filter := notDeleted(bson.M{"user_id": userID})
	return r.findWithFilter(ctx, filter, params)
}

func (r *activityRepository) ListPublic(ctx context.Context, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	filter := notDeleted(bson.M{"visibility": models.VisibilityPublic})
	return r.findWithFilter(ctx, filter, params)
}

func (r *activityRepository) FindNearPoint(ctx context.Context, field interfaces.GeometryField, lat, lng, radiusMeters float64, limit int) ([]*models.Activity, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}

	filter := notDeleted(bson.M{
		field.String(): bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": radiusMeters,
			},
		},
	})

	return r.findAll(ctx, filter, limit)
}

func (r *activityRepository) FindWithinBox(ctx context.Context, field interfaces.GeometryField, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Activity, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}

	filter := notDeleted(bson.M{
		field.String(): bson.M{
			"$geoWithin": bson.M{
				"$box": [][]float64{
					{minLng, minLat},
					{maxLng, maxLat},
				},
			},
		},
	})

	return r.findAll(ctx, filter, limit)
}

func (r *activityRepository) findWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Activity, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find activities: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []*models.Activity
	for cursor.Next(ctx) {
		var activity models.Activity
		if err := cursor.Decode(&activity); err != nil {
			return nil, 0, fmt.Errorf("failed to decode activity: %w", err)
		}
		activities = append(activities, &activity)
	}

	return activities, total, nil
}

func (r *activityRepository) findAll(ctx context.Context, filter bson.M, limit int) ([]*models.Activity, error) {
	opts := findLimitOptions(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find activities: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []*models.Activity
	for cursor.Next(ctx) {
		var activity models.Activity
		if err := cursor.Decode(&activity); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		activities = append(activities, &activity)
	}

	return activities, nil
}

// notDeleted excludes soft-deleted documents from a filter.
func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = bson.M{"$exists": false}
	return filter
}
