package storage

import (
	"time"

	"plant-cold-alerts/internal/forecast"
)

// NotificationRecord is one append-only entry in the notification audit log. The
// alert reference is informational only; the alert may be deleted later.
type NotificationRecord struct {
	ID       int64
	AlertID  *int64
	Message  string
	Channels []string
	SentAt   time.Time
}

// ForecastCacheEntry is the most recent normalized forecast snapshot.
type ForecastCacheEntry struct {
	Samples   []forecast.Sample
	FetchedAt time.Time
}
