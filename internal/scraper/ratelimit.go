package scraper

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute is the adapter-wide default request budget.
const DefaultRequestsPerMinute = 10

// RateLimiter spaces API calls at a fixed interval derived from a
// requests-per-minute budget. Burst is 1 so calls never bunch up at
// the window edge.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewRateLimiter creates a limiter for the given requests-per-minute
// budget. Non-positive values fall back to the default of 10.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	interval := time.Minute / time.Duration(rpm)
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Interval returns the spacing between permitted calls.
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}

// Wait blocks until the next call is permitted or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
