package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SegmentType string

const (
	SegmentTypeRun  SegmentType = "run"
	SegmentTypeRide SegmentType = "ride"
)

func (t SegmentType) Valid() bool {
	return t == SegmentTypeRun || t == SegmentTypeRide
}

const (
	MinSegmentDistanceMeters = 100.0
	MaxSegmentDistanceMeters = 100000.0
)

// Segment is a named reference route athletes compete on. TotalAttempts and
// UniqueAthletes are rolling aggregates maintained by the matcher;
// UniqueAthletes is fully recounted after every new effort rather than
// trusted incrementally.
type Segment struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatorID       primitive.ObjectID `json:"creator_id" bson:"creator_id" validate:"required"`
	Name            string             `json:"name" bson:"name" validate:"required"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	Type            SegmentType        `json:"type" bson:"type" validate:"required"`
	Route           GeoLineString      `json:"route" bson:"route" validate:"required"`
	DistanceMeters  float64            `json:"distance_meters" bson:"distance_meters"`
	AvgGradePercent float64            `json:"avg_grade_percent" bson:"avg_grade_percent"`
	MaxGradePercent float64            `json:"max_grade_percent" bson:"max_grade_percent"`
	ElevationGain   float64            `json:"elevation_gain" bson:"elevation_gain"`
	TotalAttempts   int64              `json:"total_attempts" bson:"total_attempts"`
	UniqueAthletes  int64              `json:"unique_athletes" bson:"unique_athletes"`
	City            string             `json:"city,omitempty" bson:"city,omitempty"`
	State           string             `json:"state,omitempty" bson:"state,omitempty"`
	IsHazardous     bool               `json:"is_hazardous" bson:"is_hazardous"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
