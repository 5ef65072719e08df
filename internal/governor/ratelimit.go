package governor

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited is a Governor that caps the aggregate rate at which
// every Worker sharing it may proceed to Execute.Process, for global
// rate limiting across a shared worker pool.
type RateLimited struct {
	limiter *rate.Limiter
}

// NewRateLimited returns a Governor allowing up to ratePerSecond
// records per second across all Workers sharing it, with burst room
// for burstSize records.
func NewRateLimited(ratePerSecond float64, burstSize int) *RateLimited {
	return &RateLimited{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burstSize)}
}

// Govern blocks until the shared limiter admits one more record.
func (g *RateLimited) Govern(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}
