package validators

import "time"

type TrackingStartRequest struct {
	Type  string `json:"type" validate:"required,activity_type"`
	Title string `json:"title" validate:"required,min=1,max=120"`
}

// TrackingFinishRequest carries the optional metadata stored on the saved
// activity. Both fields may be omitted entirely.
type TrackingFinishRequest struct {
	Description string `json:"description" validate:"omitempty,max=2000"`
	Visibility  string `json:"visibility" validate:"omitempty,visibility"`
}

type TrackPointRequest struct {
	Lat       float64   `json:"lat" validate:"min=-90,max=90"`
	Lng       float64   `json:"lng" validate:"min=-180,max=180"`
	Alt       *float64  `json:"alt" validate:"omitempty"`
	HeartRate *int      `json:"hr" validate:"omitempty,min=30,max=220"`
	Timestamp time.Time `json:"timestamp"`
}
