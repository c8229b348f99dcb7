package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User carries the display fields needed to render leaderboards. Account
// management lives in a separate service; this is a read-only reference.
// Gender is used by the read path to split KOM vs QOM views.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Username  string             `json:"username" bson:"username"`
	AvatarURL string             `json:"avatar_url" bson:"avatar_url"`
	Gender    string             `json:"gender" bson:"gender"`
}
