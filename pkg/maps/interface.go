package maps

import "context"

// Geocoder resolves a coordinate to place information. Segment creation
// uses it to label new segments with their city and state.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*PlaceInfo, error)
}

type PlaceInfo struct {
	PlaceID string `json:"place_id"`
	Address string `json:"formatted_address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}
