package units

import (
	"fmt"

	"fittrack/internal/apperrors"
)

const metersPerMile = 1609.34

// Distance is a non-negative length stored canonically in meters.
type Distance struct {
	meters float64
}

func DistanceFromMeters(meters float64) (Distance, error) {
	if meters < 0 {
		return Distance{}, apperrors.NewValidationError("distance", "distance cannot be negative")
	}
	return Distance{meters: meters}, nil
}

func DistanceFromKilometers(km float64) (Distance, error) {
	return DistanceFromMeters(km * 1000)
}

func DistanceFromMiles(miles float64) (Distance, error) {
	return DistanceFromMeters(miles * metersPerMile)
}

func (d Distance) Meters() float64 {
	return d.meters
}

func (d Distance) Kilometers() float64 {
	return d.meters / 1000
}

func (d Distance) Miles() float64 {
	return d.meters / metersPerMile
}

func (d Distance) Add(other Distance) Distance {
	return Distance{meters: d.meters + other.meters}
}

// Subtract clamps at zero rather than going negative.
func (d Distance) Subtract(other Distance) Distance {
	m := d.meters - other.meters
	if m < 0 {
		m = 0
	}
	return Distance{meters: m}
}

func (d Distance) GreaterThan(other Distance) bool {
	return d.meters > other.meters
}

func (d Distance) LessThan(other Distance) bool {
	return d.meters < other.meters
}

func (d Distance) Equals(other Distance) bool {
	diff := d.meters - other.meters
	return diff < 0.01 && diff > -0.01
}

func (d Distance) String() string {
	if d.meters >= 1000 {
		return fmt.Sprintf("%.2f km", d.Kilometers())
	}
	return fmt.Sprintf("%.0f m", d.meters)
}
