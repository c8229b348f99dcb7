package config

import (
	"time"
)

// TrackingConfig controls the redis-backed live tracking session store.
// SessionTTL is refreshed on every session write.
type TrackingConfig struct {
	SessionTTL        time.Duration `yaml:"session_ttl"`
	LockTTL           time.Duration `yaml:"lock_ttl"`
	LockRetryInterval time.Duration `yaml:"lock_retry_interval"`
}

func loadTrackingConfig() *TrackingConfig {
	return &TrackingConfig{
		SessionTTL:        getEnvAsDuration("TRACKING_SESSION_TTL", 2*time.Hour),
		LockTTL:           getEnvAsDuration("TRACKING_LOCK_TTL", 10*time.Second),
		LockRetryInterval: getEnvAsDuration("TRACKING_LOCK_RETRY_INTERVAL", 50*time.Millisecond),
	}
}
