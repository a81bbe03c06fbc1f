package ratelimiter

import "context"

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// Waiter is a limiter that can block until a request is allowed.
// The outbound transport uses it to pace calls to the backend instead of dropping them.
type Waiter interface {
	RateLimiter
	Wait(ctx context.Context) error
}
