// Package guard holds the in-process protections around the model-call
// path: a per-chat rate limiter, a monthly spend guard and a circuit
// breaker. All state is process-local and resets on restart; every method
// takes the current time so tests can drive transitions deterministically.
package guard

import (
	"sync"
	"time"
)

// RateLimiter allows at most maxRequests per chat within a rolling window.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	events      map[int64][]time.Time
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		events:      make(map[int64][]time.Time),
	}
}

// Allow reports whether the chat may issue a request at now, and records
// the request if so. A rejected request leaves the window untouched.
func (l *RateLimiter) Allow(chatID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := now.Add(-l.window)
	queue := l.events[chatID]
	for len(queue) > 0 && queue[0].Before(threshold) {
		queue = queue[1:]
	}
	if len(queue) >= l.maxRequests {
		l.events[chatID] = queue
		return false
	}
	l.events[chatID] = append(queue, now)
	return true
}
