package http

import (
	"sync"
	"time"
)

// rateLimiter is a per-user fixed one-minute window.
type rateLimiter struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	windows map[int64]*window
}

type window struct {
	start time.Time
	count int
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		now:     time.Now,
		windows: make(map[int64]*window),
	}
}

func (r *rateLimiter) allow(userID int64) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[userID]
	if !ok || now.Sub(w.start) >= time.Minute {
		w = &window{start: now}
		r.windows[userID] = w
	}
	w.count++
	return w.count <= r.limit
}
