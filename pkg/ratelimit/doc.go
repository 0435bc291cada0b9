// Package ratelimit provides the request budget shared by every API call.
//
// All listing and lookup requests wait on one Limiter before they are sent,
// so the budget stays predictable even if calls are ever issued from more
// than one goroutine. A zero requests-per-minute setting disables pacing.
//
//	limiter := ratelimit.New(15, 1) // 15 requests per minute, no burst
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
