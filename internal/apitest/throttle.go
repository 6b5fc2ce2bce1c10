package apitest

import (
	"sync"
	"time"
)

// throttle counts failed logins per email and blocks after too many.
type throttle struct {
	mu       sync.Mutex
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
	entries  map[string]*attempts
}

type attempts struct {
	fails        int
	windowStart  time.Time
	blockedUntil time.Time
}

func newThrottle(window time.Duration, maxFails int, blockFor time.Duration, now func() time.Time) *throttle {
	return &throttle{
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      now,
		entries:  make(map[string]*attempts),
	}
}

// Allow reports whether a login for key may proceed, and if not for how long it is blocked.
func (t *throttle) Allow(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.entries[key]
	if !ok {
		return true, 0
	}
	if now := t.now(); now.Before(a.blockedUntil) {
		return false, a.blockedUntil.Sub(now)
	}
	return true, 0
}

// Success resets the counters for key.
func (t *throttle) Success(key string) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

// Failure records a failed attempt; it reports true once key becomes blocked.
func (t *throttle) Failure(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	a, ok := t.entries[key]
	if !ok || now.Sub(a.windowStart) > t.window {
		a = &attempts{windowStart: now}
		t.entries[key] = a
	}
	a.fails++
	if a.fails >= t.maxFails {
		a.blockedUntil = now.Add(t.blockFor)
		a.fails = 0
		a.windowStart = now
		return true, t.blockFor
	}
	return false, 0
}
