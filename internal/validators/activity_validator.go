package validators

import "time"

type ActivityCreateRequest struct {
	Type            string              `json:"type" validate:"required,activity_type"`
	Title           string              `json:"title" validate:"required,min=1,max=120"`
	Description     string              `json:"description" validate:"omitempty,max=1000"`
	Visibility      string              `json:"visibility" validate:"visibility"`
	Route           []RoutePointRequest `json:"route" validate:"omitempty,min=2,dive"`
	DistanceMeters  float64             `json:"distance_meters" validate:"min=0"`
	DurationSeconds int                 `json:"duration_seconds" validate:"required,min=1"`
	ElevationGain   float64             `json:"elevation_gain" validate:"min=0"`
	ElevationLoss   float64             `json:"elevation_loss" validate:"min=0"`
	AvgHeartRate    *int                `json:"avg_heart_rate" validate:"omitempty,min=30,max=220"`
	MaxHeartRate    *int                `json:"max_heart_rate" validate:"omitempty,min=30,max=220"`
	StartedAt       time.Time           `json:"started_at" validate:"required"`
	Completed       bool                `json:"completed"`
}

type ActivityUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Visibility  *string `json:"visibility" validate:"omitempty,visibility"`
}
