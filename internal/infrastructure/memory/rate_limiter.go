package memory

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	expires time.Time
}

// RateLimiter keeps fixed-window bid counters in process memory. A window
// opens on the first accepted bid and expires after the configured duration.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithClock(time.Now)
}

func NewRateLimiterWithClock(now func() time.Time) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     now,
	}
}

// live returns the unexpired window for userID. Caller holds mu.
func (r *RateLimiter) live(userID string) *window {
	w, ok := r.windows[userID]
	if !ok {
		return nil
	}
	if !r.now().Before(w.expires) {
		delete(r.windows, userID)
		return nil
	}
	return w
}

func (r *RateLimiter) Count(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if w := r.live(userID); w != nil {
		return w.count, nil
	}
	return 0, nil
}

func (r *RateLimiter) Acquire(ctx context.Context, userID string, limit int, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.live(userID)
	if w == nil {
		w = &window{expires: r.now().Add(ttl)}
		r.windows[userID] = w
	}
	if w.count >= limit {
		return false, nil
	}
	w.count++
	return true, nil
}

func (r *RateLimiter) Release(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if w := r.live(userID); w != nil && w.count > 0 {
		w.count--
	}
	return nil
}
