package config

import (
	"time"
)

// MatcherConfig controls segment matching. MinOverlapPercent is the
// inclusive threshold an activity's coverage of a segment must reach to
// count as an effort.
type MatcherConfig struct {
	MinOverlapPercent      float64       `yaml:"min_overlap_percent"`
	OverlapToleranceMeters float64       `yaml:"overlap_tolerance_meters"`
	SegmentLockTTL         time.Duration `yaml:"segment_lock_ttl"`
	ConsumerName           string        `yaml:"consumer_name"`
}

func loadMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		MinOverlapPercent:      getEnvAsFloat64("MATCHER_MIN_OVERLAP_PERCENT", 90.0),
		OverlapToleranceMeters: getEnvAsFloat64("MATCHER_OVERLAP_TOLERANCE_METERS", 25.0),
		SegmentLockTTL:         getEnvAsDuration("MATCHER_SEGMENT_LOCK_TTL", 30*time.Second),
		ConsumerName:           getEnv("MATCHER_CONSUMER_NAME", "segment-matcher"),
	}
}
