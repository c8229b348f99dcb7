package interfaces

import (
	"context"

	"fittrack/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository reads athlete display data for leaderboard rendering.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
}
