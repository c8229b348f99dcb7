package units

import (
	"fmt"
	"math"

	"fittrack/internal/apperrors"
)

// Pace is a non-negative running pace stored in seconds per kilometer.
type Pace struct {
	secondsPerKm int
}

func PaceFromSecondsPerKm(secondsPerKm int) (Pace, error) {
	if secondsPerKm < 0 {
		return Pace{}, apperrors.NewValidationError("pace", "pace cannot be negative")
	}
	return Pace{secondsPerKm: secondsPerKm}, nil
}

func PaceFromDistanceAndDuration(distance Distance, duration Duration) (Pace, error) {
	if distance.Kilometers() <= 0 {
		return Pace{}, apperrors.NewValidationError("pace", "distance must be greater than zero")
	}
	secondsPerKm := int(math.Round(float64(duration.Seconds()) / distance.Kilometers()))
	return Pace{secondsPerKm: secondsPerKm}, nil
}

func PaceFromSpeed(speed Speed) (Pace, error) {
	if speed.Kmh() <= 0 {
		return Pace{}, apperrors.NewValidationError("pace", "speed must be greater than zero")
	}
	secondsPerKm := int(math.Round(3600 / speed.Kmh()))
	return Pace{secondsPerKm: secondsPerKm}, nil
}

func (p Pace) SecondsPerKm() int {
	return p.secondsPerKm
}

func (p Pace) SecondsPerMile() int {
	return int(math.Round(float64(p.secondsPerKm) * kmPerMile))
}

func (p Pace) ToSpeed() Speed {
	if p.secondsPerKm == 0 {
		return Speed{}
	}
	return Speed{kmh: 3600 / float64(p.secondsPerKm)}
}

// Format renders M:SS per kilometer.
func (p Pace) Format() string {
	minutes := p.secondsPerKm / 60
	seconds := p.secondsPerKm % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func (p Pace) FormatPerMile() string {
	perMile := p.SecondsPerMile()
	return fmt.Sprintf("%d:%02d", perMile/60, perMile%60)
}

func (p Pace) FasterThan(other Pace) bool {
	return p.secondsPerKm < other.secondsPerKm
}

func (p Pace) SlowerThan(other Pace) bool {
	return p.secondsPerKm > other.secondsPerKm
}

func (p Pace) Equals(other Pace) bool {
	return p.secondsPerKm == other.secondsPerKm
}

func (p Pace) String() string {
	return p.Format() + " /km"
}
