// Package ratelimit implements the fixed-window submission limiter used by
// the admission pipeline.
//
// Unlike an edge token-bucket limiter, this limiter exposes its window state
// (remaining quota, reset time) so the API can emit X-RateLimit-* headers,
// and it splits admission into Check and Increment: quota is only consumed
// once the guarded operation (the upstream enqueue) has succeeded, so failed
// attempts never penalize a client.
//
// Keys are expected to be hashed identities (see the identity package); the
// limiter never sees raw addresses.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a window check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the configured maximum per window.
	Limit int
	// Remaining is the quota left before the window fills (never negative).
	Remaining int
	// ResetAt is when the current window expires.
	ResetAt time.Time
}

// RetryAfter returns the seconds from now until ResetAt, rounded up and
// floored at zero. Suitable for the Retry-After header.
func (d Decision) RetryAfter(now time.Time) int {
	d2 := d.ResetAt.Sub(now)
	if d2 <= 0 {
		return 0
	}
	secs := int(d2 / time.Second)
	if d2%time.Second > 0 {
		secs++
	}
	return secs
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks per-key submission counts in fixed time windows.
//
// A window is created lazily on first use and replaced with a fresh one
// whenever its reset time has passed; expired windows are also removed by a
// periodic sweep so the map stays bounded regardless of traffic.
//
// Safe for concurrent use.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window

	// now is injectable for tests.
	now func() time.Time
}

// New constructs a Limiter allowing limit submissions per windowDur.
// limit values < 1 are coerced to 1; windowDur values <= 0 default to
// 10 minutes.
func New(limit int, windowDur time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if windowDur <= 0 {
		windowDur = 10 * time.Minute
	}
	return &Limiter{
		limit:   limit,
		window:  windowDur,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Limit returns the configured per-window maximum.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// current returns the live window for key, replacing an absent or expired
// one with a fresh (count=0) window. Callers must hold l.mu.
func (l *Limiter) current(key string, now time.Time) *window {
	w, ok := l.windows[key]
	if !ok || !w.resetAt.After(now) {
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	return w
}

// Check reports whether key has quota left in its current window. It never
// consumes quota; pair it with Increment after the guarded operation
// succeeds.
func (l *Limiter) Check(key string) Decision {
	now := l.now()

	l.mu.Lock()
	w := l.current(key, now)
	count := w.count
	resetAt := w.resetAt
	l.mu.Unlock()

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count < l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// Increment consumes one unit of quota for key. Call it only after the
// guarded operation succeeded; speculative increments would penalize failed
// attempts.
func (l *Limiter) Increment(key string) Decision {
	now := l.now()

	l.mu.Lock()
	w := l.current(key, now)
	w.count++
	count := w.count
	resetAt := w.resetAt
	l.mu.Unlock()

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count < l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// Sweep removes all windows whose reset time has passed and returns how
// many were evicted.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for k, w := range l.windows {
		if !w.resetAt.After(now) {
			delete(l.windows, k)
			evicted++
		}
	}
	return evicted
}

// Size returns the number of live (tracked) windows.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// StartSweeper launches a goroutine that calls Sweep every interval until
// ctx is cancelled. Intervals <= 0 default to one minute. The sweep runs
// off the request path and never blocks handlers beyond the map mutex.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}()
}
