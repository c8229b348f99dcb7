package services

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/apperrors"
	"fittrack/internal/repositories/interfaces"
	"fittrack/pkg/geometry"
	"fittrack/pkg/logger"
)

const (
	splitDistanceMeters   = 1000.0
	minPartialSplitMeters = 100.0
	minutesPerHour        = 60.0
)

// Split is one kilometer (or trailing partial) of a recorded activity.
type Split struct {
	Split           int     `json:"split"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	PaceMinKm       string  `json:"pace_min_km"`
	SpeedKmh        float64 `json:"speed_kmh"`
}

// PaceZone is a training intensity band expressed as a pace range around
// the activity's average pace.
type PaceZone struct {
	Zone             string  `json:"zone"`
	MinPaceMinKm     float64 `json:"min_pace_min_km"`
	MaxPaceMinKm     float64 `json:"max_pace_min_km"`
	MinPaceFormatted string  `json:"min_pace_formatted"`
	MaxPaceFormatted string  `json:"max_pace_formatted"`
	Description      string  `json:"description"`
}

// StatisticsService derives splits and pace zones from a finished
// activity's raw point data.
type StatisticsService interface {
	CalculateSplits(ctx context.Context, activityID primitive.ObjectID) ([]Split, error)
	CalculatePaceZones(ctx context.Context, activityID primitive.ObjectID) ([]PaceZone, error)
}

type statisticsService struct {
	activityRepo interfaces.ActivityRepository
	log          *logger.Logger
}

func NewStatisticsService(activityRepo interfaces.ActivityRepository, log *logger.Logger) StatisticsService {
	return &statisticsService{
		activityRepo: activityRepo,
		log:          log,
	}
}

// CalculateSplits walks the raw points and closes a split every 1000 m of
// accumulated distance. A trailing partial split is reported only when it
// exceeds 100 m.
func (s *statisticsService) CalculateSplits(ctx context.Context, activityID primitive.ObjectID) ([]Split, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	if activity.RawData == nil || len(activity.RawData.Points) < 2 {
		return []Split{}, nil
	}

	points := activity.RawData.Points
	splits := []Split{}
	currentDistance := 0.0
	splitStart := 0

	for i := 1; i < len(points); i++ {
		prev := points[i-1]
		curr := points[i]

		currentDistance += geometry.Haversine(prev.Lat, prev.Lng, curr.Lat, curr.Lng)

		if currentDistance >= splitDistanceMeters {
			duration := int(curr.Timestamp.Sub(points[splitStart].Timestamp).Seconds())
			splits = append(splits, newSplit(len(splits)+1, splitDistanceMeters, duration))

			currentDistance -= splitDistanceMeters
			splitStart = i
		}
	}

	if currentDistance > minPartialSplitMeters && splitStart < len(points)-1 {
		last := points[len(points)-1]
		duration := int(last.Timestamp.Sub(points[splitStart].Timestamp).Seconds())
		splits = append(splits, newSplit(len(splits)+1, math.Round(currentDistance*100)/100, duration))
	}

	return splits, nil
}

// CalculatePaceZones builds the six-zone intensity table from the
// activity's average pace.
func (s *statisticsService) CalculatePaceZones(ctx context.Context, activityID primitive.ObjectID) ([]PaceZone, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	if activity.AvgSpeedKmh <= 0 {
		return nil, apperrors.NewValidationError("activity", "activity has no average speed")
	}

	avgPaceMinKm := minutesPerHour / activity.AvgSpeedKmh

	bands := []struct {
		zone        string
		minFactor   float64
		maxFactor   float64
		description string
	}{
		{"recovery", 1.3, 1.5, "Recovery zone"},
		{"easy", 1.1, 1.3, "Easy zone"},
		{"moderate", 0.95, 1.1, "Moderate zone"},
		{"tempo", 0.85, 0.95, "Tempo zone"},
		{"threshold", 0.75, 0.85, "Threshold zone"},
		{"interval", 0.65, 0.75, "Interval zone"},
	}

	zones := make([]PaceZone, 0, len(bands))
	for _, band := range bands {
		minPace := avgPaceMinKm * band.minFactor
		maxPace := avgPaceMinKm * band.maxFactor

		zones = append(zones, PaceZone{
			Zone:             band.zone,
			MinPaceMinKm:     minPace,
			MaxPaceMinKm:     maxPace,
			MinPaceFormatted: formatPaceMinKm(minPace),
			MaxPaceFormatted: formatPaceMinKm(maxPace),
			Description:      band.description,
		})
	}

	return zones, nil
}

func newSplit(number int, distanceMeters float64, durationSeconds int) Split {
	speedKmh := 0.0
	if durationSeconds > 0 {
		speedKmh = (distanceMeters / 1000) / (float64(durationSeconds) / 3600)
	}

	return Split{
		Split:           number,
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
		PaceMinKm:       formatSplitPace(distanceMeters, durationSeconds),
		SpeedKmh:        math.Round(speedKmh*100) / 100,
	}
}

func formatSplitPace(distanceMeters float64, durationSeconds int) string {
	if distanceMeters <= 0 || durationSeconds <= 0 {
		return "0:00"
	}

	secondsPerKm := float64(durationSeconds) / distanceMeters * 1000
	minutes := int(secondsPerKm) / 60
	seconds := int(math.Round(math.Mod(secondsPerKm, 60)))
	if seconds == 60 {
		minutes++
		seconds = 0
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func formatPaceMinKm(paceMinKm float64) string {
	minutes := int(paceMinKm)
	seconds := int(math.Round((paceMinKm - float64(minutes)) * 60))
	if seconds == 60 {
		minutes++
		seconds = 0
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
