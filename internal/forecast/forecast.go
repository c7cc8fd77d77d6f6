package forecast

import (
	"context"
	"errors"
	"time"
)

// ErrDataUnavailable signals that the provider returned no usable samples for the
// current horizon. Callers skip the run; existing alerts are left untouched.
var ErrDataUnavailable = errors.New("forecast: no samples available")

// Sample is one hourly forecast point. Timestamps are UTC.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
}

// Fetcher retrieves the raw hourly forecast for the configured location.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Sample, error)
}
