package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter is a RateLimiter that admits at most limit requests per
// fixed time window. The counter resets when the window rolls over.
type FixedWindowCounter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	mutex       sync.Mutex
}

// NewFixedWindowCounter creates a FixedWindowCounter admitting limit requests
// per window.
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// Allow resets the window if it has elapsed, then admits the request if the
// window still has room.
func (fwc *FixedWindowCounter) Allow() bool {
	fwc.mutex.Lock()
	defer fwc.mutex.Unlock()

	now := time.Now()
	if now.After(fwc.windowStart.Add(fwc.window)) {
		fwc.windowStart = now
		fwc.count = 0
	}

	if fwc.count < fwc.limit {
		fwc.count++
		return true
	}
	return false
}
