package ratelimit

import (
	"sync"
	"time"
)

// Limiter answers whether a keyed caller may proceed. Implementations are
// injectable so a shared-store variant can replace the in-memory one when
// a cross-instance guarantee is needed.
type Limiter interface {
	Allow(key string) bool
}

// SlidingWindow counts requests per key in a trailing window. Counters
// live in process memory: in a horizontally scaled deployment each
// instance enforces its own budget, so the guarantee is best effort,
// single instance.
type SlidingWindow struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindow(max int, window time.Duration) *SlidingWindow {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindow{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow records a hit for key and reports whether it fits the window.
// Stale timestamps are pruned on access.
func (l *SlidingWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.max {
		l.hits[key] = recent
		return false
	}

	l.hits[key] = append(recent, now)
	return true
}

// Reset clears the counters for a key.
func (l *SlidingWindow) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}
