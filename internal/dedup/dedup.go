// Package dedup provides at-most-once acceptance of inbound Telegram
// updates. The set lives in process memory only; entries expire after a
// TTL and everything resets on restart.
package dedup

import (
	"sync"
	"time"
)

type UpdateDeduplicator struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
}

func New(ttl time.Duration) *UpdateDeduplicator {
	return &UpdateDeduplicator{
		ttl:  ttl,
		seen: make(map[int]time.Time),
	}
}

// MarkSeen records the update id and reports whether it was accepted.
// A repeated id within the TTL returns false.
func (d *UpdateDeduplicator) MarkSeen(updateID int, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	threshold := now.Add(-d.ttl)
	for id, seenAt := range d.seen {
		if seenAt.Before(threshold) {
			delete(d.seen, id)
		}
	}
	if _, ok := d.seen[updateID]; ok {
		return false
	}
	d.seen[updateID] = now
	return true
}
