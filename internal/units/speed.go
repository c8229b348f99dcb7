package units

import (
	"fmt"

	"fittrack/internal/apperrors"
)

const kmPerMile = 1.60934

// Speed is a non-negative velocity stored canonically in km/h.
type Speed struct {
	kmh float64
}

func SpeedFromKmh(kmh float64) (Speed, error) {
	if kmh < 0 {
		return Speed{}, apperrors.NewValidationError("speed", "speed cannot be negative")
	}
	return Speed{kmh: kmh}, nil
}

func SpeedFromMs(ms float64) (Speed, error) {
	return SpeedFromKmh(ms * 3.6)
}

func SpeedFromMph(mph float64) (Speed, error) {
	return SpeedFromKmh(mph * kmPerMile)
}

func (s Speed) Kmh() float64 {
	return s.kmh
}

func (s Speed) Ms() float64 {
	return s.kmh / 3.6
}

func (s Speed) Mph() float64 {
	return s.kmh / kmPerMile
}

func (s Speed) GreaterThan(other Speed) bool {
	return s.kmh > other.kmh
}

func (s Speed) LessThan(other Speed) bool {
	return s.kmh < other.kmh
}

// Equals compares within an epsilon of 0.01 km/h.
func (s Speed) Equals(other Speed) bool {
	diff := s.kmh - other.kmh
	return diff < 0.01 && diff > -0.01
}

func (s Speed) String() string {
	return fmt.Sprintf("%.2f km/h", s.kmh)
}
