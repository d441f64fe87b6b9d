// Package queue implements the local queue ledger: an in-memory, ordered
// record of submissions accepted by this service.
//
// The ledger is deliberately independent of the upstream provider's queue.
// Spotify's queue view mixes host-initiated playback with our submissions
// and drops items as they play; the ledger is the authoritative record of
// who asked for what, in admission order, for the lifetime of the process.
package queue

import (
	"sync"
	"time"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
)

// Ledger is an append-only, order-preserving record of accepted queue
// submissions. Safe for concurrent use. Not persisted; fully reset on
// process restart.
type Ledger struct {
	mu    sync.Mutex
	items []domain.QueueItem

	// now is injectable for tests.
	now func() time.Time
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// List returns a snapshot copy of all items in insertion order. Mutating
// the returned slice does not affect the ledger.
func (l *Ledger) List() []domain.QueueItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.QueueItem, len(l.items))
	copy(out, l.items)
	return out
}

// Append records a submission and returns the created item. It always
// succeeds; duplicate policy is the caller's concern (see Contains).
func (l *Ledger) Append(track domain.Track, submitter string) domain.QueueItem {
	item := domain.QueueItem{
		Track:   track,
		AddedAt: l.now(),
		AddedBy: submitter,
	}

	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()

	return item
}

// Contains reports whether a submission with the given track id is
// currently recorded.
func (l *Ledger) Contains(trackID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, it := range l.items {
		if it.Track.ID == trackID {
			return true
		}
	}
	return false
}

// Remove deletes the first submission with the given track id, preserving
// the order of the rest. It reports whether anything was removed.
//
// Not wired to any route; it exists for host-side moderation and tests.
func (l *Ledger) Remove(trackID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, it := range l.items {
		if it.Track.ID == trackID {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear resets the ledger to empty.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// Len returns the number of recorded submissions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
