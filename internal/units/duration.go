package units

import (
	"fmt"
	"math"

	"fittrack/internal/apperrors"
)

// Duration is a non-negative span of time stored in whole seconds.
type Duration struct {
	seconds int
}

func DurationFromSeconds(seconds int) (Duration, error) {
	if seconds < 0 {
		return Duration{}, apperrors.NewValidationError("duration", "duration cannot be negative")
	}
	return Duration{seconds: seconds}, nil
}

func DurationFromMinutes(minutes int) (Duration, error) {
	return DurationFromSeconds(minutes * 60)
}

func DurationFromHours(hours float64) (Duration, error) {
	return DurationFromSeconds(int(math.Round(hours * 3600)))
}

func (d Duration) Seconds() int {
	return d.seconds
}

func (d Duration) Minutes() float64 {
	return float64(d.seconds) / 60
}

func (d Duration) Hours() float64 {
	return float64(d.seconds) / 3600
}

func (d Duration) Add(other Duration) Duration {
	return Duration{seconds: d.seconds + other.seconds}
}

// Subtract clamps at zero.
func (d Duration) Subtract(other Duration) Duration {
	s := d.seconds - other.seconds
	if s < 0 {
		s = 0
	}
	return Duration{seconds: s}
}

func (d Duration) GreaterThan(other Duration) bool {
	return d.seconds > other.seconds
}

func (d Duration) LessThan(other Duration) bool {
	return d.seconds < other.seconds
}

func (d Duration) Equals(other Duration) bool {
	return d.seconds == other.seconds
}

// Format renders H:MM:SS when an hour or longer, otherwise M:SS.
func (d Duration) Format() string {
	hours := d.seconds / 3600
	minutes := (d.seconds % 3600) / 60
	seconds := d.seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func (d Duration) String() string {
	return d.Format()
}
