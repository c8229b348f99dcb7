package interfaces

import (
	"context"

	"fittrack/internal/models"
	"fittrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SegmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, segment *models.Segment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Segment, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Segment, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Listing
	List(ctx context.Context, segmentType *models.SegmentType, params *utils.PaginationParams) ([]*models.Segment, int64, error)

	// Spatial queries
	FindIntersectingRoute(ctx context.Context, route models.GeoLineString) ([]*models.Segment, error)
	FindNearPoint(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]*models.Segment, error)
	FindWithinBox(ctx context.Context, minLat, minLng, maxLat, maxLng float64, limit int) ([]*models.Segment, error)

	// Aggregate maintenance performed by the matcher
	IncrementTotalAttempts(ctx context.Context, id primitive.ObjectID) error
	SetUniqueAthletes(ctx context.Context, id primitive.ObjectID, count int64) error
}
