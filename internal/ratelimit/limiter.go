package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed bool
	// RetryAfterSeconds is how long, rounded up to whole seconds, until the
	// current window resets. Only meaningful when Allowed is false.
	RetryAfterSeconds int
	// Remaining is how many requests the key may still make in this window.
	Remaining int
}

// Rule describes one fixed window: at most Limit hits per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Limiter counts hits per key in fixed windows. Implementations must be safe
// for concurrent use.
type Limiter interface {
	// Allow records a hit for key under rule and reports whether it fits in
	// the current window.
	Allow(ctx context.Context, key string, rule Rule) (Result, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the in-process fixed-window limiter. Each key tracks one
// window; when a hit arrives after the window's reset time the counter starts
// over. Stale windows are swept opportunistically so the map stays bounded by
// the active key set.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

// NewMemoryLimiter creates an empty in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows:   make(map[string]*window),
		lastSweep: time.Now(),
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string, rule Rule) (Result, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Result{Allowed: true, Remaining: 1}, nil
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(rule.Window)}
		l.windows[key] = w
	}

	if w.count >= rule.Limit {
		return Result{
			Allowed:           false,
			RetryAfterSeconds: retryAfterSeconds(w.resetAt, now),
			Remaining:         0,
		}, nil
	}

	w.count++
	return Result{Allowed: true, Remaining: rule.Limit - w.count}, nil
}

// sweepLocked drops windows whose reset time has passed. Runs at most once a
// minute so hot paths do not pay for a full map scan per request.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now

	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

func retryAfterSeconds(resetAt, now time.Time) int {
	remaining := resetAt.Sub(now)
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
