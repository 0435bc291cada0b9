package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request is allowed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute requests with the given
// burst. requestsPerMinute <= 0 returns an unlimited limiter.
func New(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(requestsPerMinute, burst, time.Minute)
}

// NewTokenBucket creates a limiter refilling capacity tokens per period.
// A non-positive capacity or period yields a bucket that never blocks.
func NewTokenBucket(capacity, burst int, period time.Duration) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	if capacity <= 0 || period <= 0 {
		return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, burst)}
	}
	every := period / time.Duration(capacity)
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
