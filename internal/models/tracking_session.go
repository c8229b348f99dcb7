package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrackingSessionStatus string

const (
	TrackingStatusActive TrackingSessionStatus = "active"
	TrackingStatusPaused TrackingSessionStatus = "paused"
)

// TrackingSession is the ephemeral redis-held state of an in-progress
// workout. It lives under a TTL refreshed on every write; if the TTL lapses
// before finish, the session is gone.
type TrackingSession struct {
	ID                string                `json:"id"`
	UserID            primitive.ObjectID    `json:"user_id"`
	Type              ActivityType          `json:"type"`
	Title             string                `json:"title"`
	Status            TrackingSessionStatus `json:"status"`
	StartedAt         time.Time             `json:"started_at"`
	PausedAt          *time.Time            `json:"paused_at,omitempty"`
	TotalPauseSeconds int                   `json:"total_pause_seconds"`
	Points            []TrackPoint          `json:"points"`
}
