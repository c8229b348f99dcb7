package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityType string
type ActivityVisibility string

const (
	ActivityTypeRun   ActivityType = "run"
	ActivityTypeRide  ActivityType = "ride"
	ActivityTypeWalk  ActivityType = "walk"
	ActivityTypeSwim  ActivityType = "swim"
	ActivityTypeGym   ActivityType = "gym"
	ActivityTypeOther ActivityType = "other"

	VisibilityPublic    ActivityVisibility = "public"
	VisibilityFollowers ActivityVisibility = "followers"
	VisibilityPrivate   ActivityVisibility = "private"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeRun, ActivityTypeRide, ActivityTypeWalk,
		ActivityTypeSwim, ActivityTypeGym, ActivityTypeOther:
		return true
	}
	return false
}

func (v ActivityVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityPrivate:
		return true
	}
	return false
}

// TrackPoint is a single recorded GPS fix.
type TrackPoint struct {
	Lat       float64   `json:"lat" bson:"lat"`
	Lng       float64   `json:"lng" bson:"lng"`
	Alt       *float64  `json:"alt,omitempty" bson:"alt,omitempty"`
	HeartRate *int      `json:"hr,omitempty" bson:"hr,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ActivityRawData is the auxiliary payload attached to a finished activity.
type ActivityRawData struct {
	Points []TrackPoint `json:"points" bson:"points"`
}

// Activity is a completed (or manually entered) workout owned by a user.
type Activity struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Type              ActivityType       `json:"type" bson:"type" validate:"required"`
	Title             string             `json:"title" bson:"title" validate:"required"`
	Description       string             `json:"description,omitempty" bson:"description,omitempty"`
	Visibility        ActivityVisibility `json:"visibility" bson:"visibility" default:"public"`
	Route             *GeoLineString     `json:"route,omitempty" bson:"route,omitempty"`
	DistanceMeters    float64            `json:"distance_meters" bson:"distance_meters"`
	DurationSeconds   int                `json:"duration_seconds" bson:"duration_seconds"`
	MovingTimeSeconds int                `json:"moving_time_seconds" bson:"moving_time_seconds"`
	ElevationGain     float64            `json:"elevation_gain" bson:"elevation_gain"`
	ElevationLoss     float64            `json:"elevation_loss" bson:"elevation_loss"`
	AvgSpeedKmh       float64            `json:"avg_speed_kmh" bson:"avg_speed_kmh"`
	MaxSpeedKmh       float64            `json:"max_speed_kmh" bson:"max_speed_kmh"`
	AvgHeartRate      *int               `json:"avg_heart_rate,omitempty" bson:"avg_heart_rate,omitempty"`
	MaxHeartRate      *int               `json:"max_heart_rate,omitempty" bson:"max_heart_rate,omitempty"`
	RawData           *ActivityRawData   `json:"raw_data,omitempty" bson:"raw_data,omitempty"`
	StartedAt         time.Time          `json:"started_at" bson:"started_at"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt         *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// CanMatchSegments reports whether the activity qualifies for segment
// matching at all.
func (a *Activity) CanMatchSegments() bool {
	return a.Route != nil && a.CompletedAt != nil && a.DurationSeconds > 0
}
