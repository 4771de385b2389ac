package middleware

import (
	"sync"
	"time"
)

// RateLimiter counts requests per key in fixed one-minute windows.
type RateLimiter struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Limit returns the per-minute allowance.
func (l *RateLimiter) Limit() int {
	if l == nil {
		return 0
	}
	return l.limit
}

// Allow increments the counter for key and reports whether it is within the
// limit. A nil limiter or a non-positive limit allows everything.
func (l *RateLimiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.prune(now)
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit
}

func (l *RateLimiter) prune(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= time.Minute {
			delete(l.windows, k)
		}
	}
}
