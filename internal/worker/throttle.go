package worker

import (
	"sync"
	"time"
)

const staleAfter = 10 * time.Minute

// Throttle allows up to perMinute events per key in a fixed one-minute
// window.
type Throttle struct {
	mu        sync.Mutex
	perMinute int
	now       func() time.Time
	keys      map[string]*window
	lastPrune time.Time
}

type window struct {
	start  time.Time
	events int
}

func NewThrottle(perMinute int) *Throttle {
	return &Throttle{
		perMinute: perMinute,
		now:       time.Now,
		keys:      make(map[string]*window),
	}
}

// Allow records an event for key and reports whether it is within the limit.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)

	w, ok := t.keys[key]
	if !ok || now.Sub(w.start) > time.Minute {
		t.keys[key] = &window{start: now, events: 1}
		return true
	}
	w.events++
	return w.events <= t.perMinute
}

// Keys returns the number of tracked keys.
func (t *Throttle) Keys() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}

func (t *Throttle) pruneLocked(now time.Time) {
	if now.Sub(t.lastPrune) < staleAfter {
		return
	}
	t.lastPrune = now
	for k, w := range t.keys {
		if now.Sub(w.start) > staleAfter {
			delete(t.keys, k)
		}
	}
}
