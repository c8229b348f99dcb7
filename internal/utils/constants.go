package utils

import "time"

// Application Constants
const (
	AppName    = "FitTrack"
	AppVersion = "1.0.0"

	// Default values
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Live tracking
	TrackingSessionTTL       = 2 * time.Hour
	MinTrackPointsForSummary = 2

	// Segment matching
	DefaultMinOverlapPercent      = 90.0
	DefaultOverlapToleranceMeters = 25.0
	MinSegmentDistanceMeters      = 100.0
	MaxSegmentDistanceMeters      = 100000.0
	MinEstimatedEffortSeconds     = 1

	// Geo queries
	DefaultSearchRadiusMeters = 10000.0
	MaxSearchRadiusMeters     = 50000.0
	DefaultGeoQueryLimit      = 50

	// Rate Limiting
	DefaultRateLimit = 100
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrInvalidToken       = "invalid token"
	ErrTokenExpired       = "token expired"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrNotFound           = "not found"
	ErrConflict           = "conflict"
	ErrValidationFailed   = "validation failed"
)

// Cache Keys
const (
	CacheUserPrefix        = "user:"
	CacheSegmentPrefix     = "segment:"
	CacheLeaderboardPrefix = "leaderboard:"
	CacheRateLimitPrefix   = "rate_limit:"
	TrackingSessionPrefix  = "activity:tracking:"
	TrackingLockPrefix     = "activity:tracking:lock:"
	SegmentLockPrefix      = "segment:lock:"
)

// Event Types
const (
	EventTrackingStarted   = "tracking_started"
	EventTrackingPoint     = "tracking_point"
	EventTrackingPaused    = "tracking_paused"
	EventTrackingResumed   = "tracking_resumed"
	EventTrackingFinished  = "tracking_finished"
	EventActivityCompleted = "activity_completed"
	EventEffortCreated     = "effort_created"
	EventKomTaken          = "kom_taken"
)

// Geographic Constants
const (
	EarthRadiusKM     = 6371.0
	EarthRadiusMeters = 6371000.0
)
