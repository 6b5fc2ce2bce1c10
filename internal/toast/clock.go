package toast

import (
	"sort"
	"sync"
	"time"
)

// Clock schedules delayed callbacks. Auto-dismissal goes through it so tests
// can drive time by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// ManualClock is a Clock that only moves when Advance is called.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []manualTimer
	seq    int
}

type manualTimer struct {
	at  time.Duration
	seq int
	f   func()
}

// NewManualClock returns a clock positioned at zero.
func NewManualClock() *ManualClock { return &ManualClock{} }

// AfterFunc registers f to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.timers = append(c.timers, manualTimer{at: c.now + d, seq: c.seq, f: f})
}

// Advance moves the clock forward and runs every due callback in due order.
// Callbacks run on the caller's goroutine, outside the clock's lock.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due, rest []manualTimer
	for _, t := range c.timers {
		if t.at <= c.now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.f()
	}
}

// Pending reports how many callbacks are still scheduled.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
