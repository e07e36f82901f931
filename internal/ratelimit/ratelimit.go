// Package ratelimit paces repeated actions against a per-minute budget.
// It backs the reactive scan throttle and outbound delivery caps.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter enforces a per-minute budget with a small burst allowance.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing perMinute events per minute. Tokens refill
// continuously; the burst is a tenth of the budget so a quiet period cannot
// bank a full minute of events, with a floor of one so low budgets still
// admit anything at all.
func New(perMinute int) *Limiter {
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

// Allow reports whether one event fits the budget right now. It never
// blocks; callers skip the action when denied.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until the budget admits one event or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Tokens returns the currently banked budget.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}
