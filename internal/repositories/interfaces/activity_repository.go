package interfaces

import (
	"context"

	"fittrack/internal/models"
	"fittrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error

	// Listing
	ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Activity, int64, error)
	ListPublic(ctx context.Context, params *utils.PaginationParams) ([]*models.Activity, int64, error)

	// Spatial queries. Field must pass GeometryField.Validate.
	FindNearPoint(ctx context.Context, field GeometryField, lat, lng, radiusMeters float64, limit int) ([]*models.Activity, error)
	FindWithinBox(ctx context.Context, field GeometryField, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Activity, error)
}
