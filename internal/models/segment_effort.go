package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SegmentEffort is one activity's timed attempt at one segment. Only the
// three ranking fields (IsPr, IsKom, RankOverall) are ever rewritten after
// creation; they are recomputed whenever a new effort lands on the segment.
type SegmentEffort struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SegmentID       primitive.ObjectID `json:"segment_id" bson:"segment_id" validate:"required"`
	ActivityID      primitive.ObjectID `json:"activity_id" bson:"activity_id" validate:"required"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	DurationSeconds int                `json:"duration_seconds" bson:"duration_seconds"`
	AvgSpeedKmh     float64            `json:"avg_speed_kmh" bson:"avg_speed_kmh"`
	AvgHeartRate    *int               `json:"avg_heart_rate,omitempty" bson:"avg_heart_rate,omitempty"`
	RankOverall     *int               `json:"rank_overall,omitempty" bson:"rank_overall,omitempty"`
	RankAgeGroup    *int               `json:"rank_age_group,omitempty" bson:"rank_age_group,omitempty"`
	IsKom           bool               `json:"is_kom" bson:"is_kom"`
	IsPr            bool               `json:"is_pr" bson:"is_pr"`
	AchievedAt      time.Time          `json:"achieved_at" bson:"achieved_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
