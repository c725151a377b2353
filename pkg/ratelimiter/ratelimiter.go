package ratelimiter

// RateLimiter decides, per request, whether the request may proceed.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}
