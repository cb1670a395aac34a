// Package ratelimit paces upstream calls to protect the daily API quota.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next call is allowed.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Limiter admits at most one call per interval.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// Every returns a Limiter allowing one call per interval. The first call
// passes immediately. A non-positive interval disables pacing.
func Every(interval time.Duration) *Limiter {
	if interval <= 0 {
		return Unlimited()
	}
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Unlimited never blocks. Used by tests and offline tooling.
func Unlimited() *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *Limiter) Interval() time.Duration {
	return l.interval
}
