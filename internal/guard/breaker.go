package guard

import (
	"sync"
	"time"
)

// CircuitBreaker stops model calls after repeated failures. Once the
// failure count reaches the threshold it opens for openDuration; a
// success closes it and resets the count.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	openDuration     time.Duration
	failures         int
	openedUntil      *time.Time
}

func NewCircuitBreaker(failureThreshold int, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
	}
}

// IsOpen reports whether calls should be rejected at now.
func (b *CircuitBreaker) IsOpen(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openedUntil != nil && now.Before(*b.openedUntil)
}

// RegisterFailure counts one failure and opens the breaker once the
// threshold is reached.
func (b *CircuitBreaker) RegisterFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.failureThreshold {
		until := now.Add(b.openDuration)
		b.openedUntil = &until
	}
}

// RegisterSuccess resets the failure count and closes the breaker.
func (b *CircuitBreaker) RegisterSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openedUntil = nil
}
