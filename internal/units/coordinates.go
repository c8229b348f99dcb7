package units

import (
	"fmt"
	"math"

	"fittrack/internal/apperrors"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

const coordinateEpsilon = 1e-4

// Coordinates is an immutable WGS-84 position with an optional altitude.
type Coordinates struct {
	latitude  float64
	longitude float64
	altitude  *float64
}

func CoordinatesFrom(latitude, longitude float64, altitude *float64) (Coordinates, error) {
	if latitude < -90 || latitude > 90 {
		return Coordinates{}, apperrors.NewValidationError("latitude", "latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		return Coordinates{}, apperrors.NewValidationError("longitude", "longitude must be between -180 and 180")
	}
	return Coordinates{latitude: latitude, longitude: longitude, altitude: altitude}, nil
}

func (c Coordinates) Latitude() float64 {
	return c.latitude
}

func (c Coordinates) Longitude() float64 {
	return c.longitude
}

func (c Coordinates) Altitude() *float64 {
	return c.altitude
}

func (c Coordinates) HasAltitude() bool {
	return c.altitude != nil
}

// DistanceTo computes the geodesic haversine distance in meters.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	lat1 := c.latitude * math.Pi / 180
	lat2 := other.latitude * math.Pi / 180
	deltaLat := (other.latitude - c.latitude) * math.Pi / 180
	deltaLon := (other.longitude - c.longitude) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	ch := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * ch
}

// Equals compares within ~1e-4 degrees, roughly 11 m at the equator.
func (c Coordinates) Equals(other Coordinates) bool {
	return math.Abs(c.latitude-other.latitude) < coordinateEpsilon &&
		math.Abs(c.longitude-other.longitude) < coordinateEpsilon
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.latitude, c.longitude)
}
