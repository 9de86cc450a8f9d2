package repository

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out successive calls to the metadata provider
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a pacer allowing one call per interval. The first call
// after an idle period proceeds immediately. A non-positive interval
// disables pacing; config maps a negative bgg.sync_delay here.
func NewPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
