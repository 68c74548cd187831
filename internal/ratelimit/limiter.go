package ratelimit

import "context"

// RateLimiter throttles expensive operations per caller scope
// (e.g. uploads per user).
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
}
