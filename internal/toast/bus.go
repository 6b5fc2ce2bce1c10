// Package toast is the process-wide notification bus.
//
// Any component may publish a message; whoever is subscribed renders it.
// Snapshots reach subscribers in the order Add/Remove were called, and a
// call returns once its snapshot has been delivered. The one exception is a
// listener calling back into the bus: its change is delivered right after
// the listener returns.
package toast

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a toast.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// DefaultTimeout is how long a toast stays up unless told otherwise.
const DefaultTimeout = 3 * time.Second

// Item is a single notification.
type Item struct {
	ID      int64  `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Listener receives the full ordered sequence after every change.
// The slice is shared between listeners and must not be modified. A listener
// must not block on another goroutine that publishes to the same bus.
type Listener func(items []Item)

type subscription struct {
	fn     Listener
	closed atomic.Bool
}

type delivery struct {
	items []Item
	to    []*subscription
	done  chan struct{}
}

// Bus holds the ordered toast sequence and its subscribers.
type Bus struct {
	mu             sync.Mutex
	clock          Clock
	log            *zap.Logger
	defaultTimeout time.Duration

	seq   int64
	items []Item
	subs  []*subscription

	queue       []delivery
	dispatching bool
	dispatcher  uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithClock replaces the timer source used for auto-dismissal.
func WithClock(c Clock) Option { return func(b *Bus) { b.clock = c } }

// WithLogger attaches a logger; every add/remove is logged at debug level.
func WithLogger(l *zap.Logger) Option { return func(b *Bus) { b.log = l } }

// WithDefaultTimeout changes the timeout used by Success/Error/Info/Warning.
func WithDefaultTimeout(d time.Duration) Option { return func(b *Bus) { b.defaultTimeout = d } }

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{clock: realClock{}, log: zap.NewNop(), defaultTimeout: DefaultTimeout}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Add appends a toast and notifies subscribers. A positive timeout schedules
// removal of this toast only; later adds do not reset it. An empty kind means Info.
func (b *Bus) Add(message string, kind Kind, timeout time.Duration) int64 {
	if kind == "" {
		kind = Info
	}
	b.mu.Lock()
	b.seq++
	id := b.seq
	b.items = append(b.items[:len(b.items):len(b.items)], Item{ID: id, Kind: kind, Message: message})
	w := b.enqueueLocked(nil)
	b.mu.Unlock()

	b.log.Debug("toast added", zap.Int64("id", id), zap.String("kind", string(kind)), zap.Duration("timeout", timeout))
	if timeout > 0 {
		b.clock.AfterFunc(timeout, func() { b.Remove(id) })
	}
	b.deliver(w)
	return id
}

// Success adds a success toast with the default timeout.
func (b *Bus) Success(message string) int64 { return b.Add(message, Success, b.defaultTimeout) }

// Error adds an error toast with the default timeout.
func (b *Bus) Error(message string) int64 { return b.Add(message, Error, b.defaultTimeout) }

// Info adds an info toast with the default timeout.
func (b *Bus) Info(message string) int64 { return b.Add(message, Info, b.defaultTimeout) }

// Warning adds a warning toast with the default timeout.
func (b *Bus) Warning(message string) int64 { return b.Add(message, Warning, b.defaultTimeout) }

// Remove drops the toast with id if present. Subscribers are notified either way.
func (b *Bus) Remove(id int64) {
	b.mu.Lock()
	kept := make([]Item, 0, len(b.items))
	for _, it := range b.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	b.items = kept
	w := b.enqueueLocked(nil)
	b.mu.Unlock()

	b.log.Debug("toast removed", zap.Int64("id", id))
	b.deliver(w)
}

// Subscribe registers fn and immediately delivers the current sequence to it.
// The returned func deregisters fn; calling it more than once is harmless.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	s := &subscription{fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	w := b.enqueueLocked([]*subscription{s})
	b.mu.Unlock()
	b.deliver(w)

	return func() {
		if s.closed.Swap(true) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, x := range b.subs {
			if x == s {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				break
			}
		}
	}
}

// Items returns a copy of the current sequence.
func (b *Bus) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// ticket is what a publisher needs to see its snapshot delivered.
type ticket struct {
	owner      bool
	done       <-chan struct{}
	dispatcher uint64
}

// enqueueLocked queues a snapshot for to (all subscribers when nil).
func (b *Bus) enqueueLocked(to []*subscription) ticket {
	if to == nil {
		to = make([]*subscription, len(b.subs))
		copy(to, b.subs)
	}
	snap := make([]Item, len(b.items))
	copy(snap, b.items)
	done := make(chan struct{})
	b.queue = append(b.queue, delivery{items: snap, to: to, done: done})
	if b.dispatching {
		return ticket{done: done, dispatcher: b.dispatcher}
	}
	b.dispatching = true
	return ticket{owner: true, done: done}
}

// deliver runs the dispatcher when w owns it, and otherwise waits for the
// running dispatcher to get through w's snapshot. A listener publishing from
// the dispatcher's own goroutine cannot wait for itself, so it returns at once.
func (b *Bus) deliver(w ticket) {
	if w.owner {
		b.drain()
		return
	}
	if w.dispatcher != 0 && w.dispatcher == goroutineID() {
		return
	}
	<-w.done
}

// drain delivers queued snapshots until the queue is empty. Only one
// goroutine drains at a time, so listeners never see snapshots out of order
// and a listener calling back into the bus only queues more work.
//
// A panicking listener aborts the whole queue: pending snapshots are dropped
// and their publishers released, so the next change starts from a clean
// queue with the then current sequence.
func (b *Bus) drain() {
	gid := goroutineID()
	b.mu.Lock()
	b.dispatcher = gid
	b.mu.Unlock()

	var cur delivery
	defer func() {
		if r := recover(); r != nil {
			b.mu.Lock()
			dropped := b.queue
			b.queue = nil
			b.dispatching = false
			b.dispatcher = 0
			b.mu.Unlock()
			if cur.done != nil {
				close(cur.done)
			}
			for _, d := range dropped {
				close(d.done)
			}
			b.log.Error("toast listener panicked", zap.Any("panic", r), zap.Int("dropped", len(dropped)))
			panic(r)
		}
	}()
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.dispatching = false
			b.dispatcher = 0
			b.mu.Unlock()
			return
		}
		cur = b.queue[0]
		b.queue[0] = delivery{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		for _, s := range cur.to {
			if !s.closed.Load() {
				s.fn(cur.items)
			}
		}
		close(cur.done)
		cur = delivery{}
	}
}
