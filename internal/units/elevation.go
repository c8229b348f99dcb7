package units

import (
	"fmt"
	"math"
)

const metersPerFoot = 0.3048

// Elevation is a signed altitude delta in meters. Unlike Distance it may be
// negative, representing descent.
type Elevation struct {
	meters float64
}

func ElevationFromMeters(meters float64) Elevation {
	return Elevation{meters: meters}
}

func ElevationFromFeet(feet float64) Elevation {
	return Elevation{meters: feet * metersPerFoot}
}

func (e Elevation) Meters() float64 {
	return e.meters
}

func (e Elevation) Feet() float64 {
	return e.meters / metersPerFoot
}

func (e Elevation) Add(other Elevation) Elevation {
	return Elevation{meters: e.meters + other.meters}
}

func (e Elevation) Subtract(other Elevation) Elevation {
	return Elevation{meters: e.meters - other.meters}
}

func (e Elevation) IsPositive() bool {
	return e.meters > 0
}

func (e Elevation) IsNegative() bool {
	return e.meters < 0
}

func (e Elevation) Abs() Elevation {
	return Elevation{meters: math.Abs(e.meters)}
}

func (e Elevation) String() string {
	return fmt.Sprintf("%.1f m", e.meters)
}
