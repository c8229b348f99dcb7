package units

import (
	"fmt"

	"fittrack/internal/apperrors"
)

const (
	MinHeartRateBpm = 30
	MaxHeartRateBpm = 220
)

// HeartRate is a bounded heart-rate reading in beats per minute. Out-of-range
// values fail at construction, they are not clamped.
type HeartRate struct {
	bpm int
}

func HeartRateFromBpm(bpm int) (HeartRate, error) {
	if bpm < MinHeartRateBpm || bpm > MaxHeartRateBpm {
		return HeartRate{}, apperrors.NewValidationError("heart_rate",
			fmt.Sprintf("heart rate must be between %d and %d bpm", MinHeartRateBpm, MaxHeartRateBpm))
	}
	return HeartRate{bpm: bpm}, nil
}

func (h HeartRate) Bpm() int {
	return h.bpm
}

// Zone classifies the reading against a maximum heart rate:
// >=90% zone 5, >=80% zone 4, >=70% zone 3, >=60% zone 2, else zone 1.
func (h HeartRate) Zone(maxHeartRate int) int {
	percentage := float64(h.bpm) / float64(maxHeartRate) * 100

	switch {
	case percentage >= 90:
		return 5
	case percentage >= 80:
		return 4
	case percentage >= 70:
		return 3
	case percentage >= 60:
		return 2
	default:
		return 1
	}
}

func (h HeartRate) HigherThan(other HeartRate) bool {
	return h.bpm > other.bpm
}

func (h HeartRate) LowerThan(other HeartRate) bool {
	return h.bpm < other.bpm
}

func (h HeartRate) Equals(other HeartRate) bool {
	return h.bpm == other.bpm
}

func (h HeartRate) String() string {
	return fmt.Sprintf("%d bpm", h.bpm)
}
