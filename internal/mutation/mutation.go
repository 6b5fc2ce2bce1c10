// Package mutation standardises the pending/error/notify pattern around a
// single asynchronous action.
package mutation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FallbackMessage is shown when neither the server nor the caller supplied one.
const FallbackMessage = "Something went wrong"

// Notifier receives success and error toasts. *toast.Bus satisfies it.
type Notifier interface {
	Success(message string) int64
	Error(message string) int64
}

// Func is the wrapped operation.
type Func[A, R any] func(ctx context.Context, arg A) (R, error)

// Outcome describes one settled call.
type Outcome struct {
	Name       string
	Seq        uint64
	Started    time.Time
	Finished   time.Time
	Err        error
	Message    string
	Superseded bool
}

// Observer is told about every settled call, superseded or not.
type Observer interface {
	Settled(ctx context.Context, o Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome)

func (f ObserverFunc) Settled(ctx context.Context, o Outcome) { f(ctx, o) }

// Options configures a Mutation. All fields are optional.
type Options struct {
	Name           string
	SuccessMessage string
	ErrorMessage   string
	Observer       Observer
	Logger         *zap.Logger
}

// State is the observable status of a Mutation.
type State struct {
	Pending      bool
	ErrorMessage string
}

// Mutation wraps fn. A call started later always owns the visible state,
// whatever order calls finish in.
type Mutation[A, R any] struct {
	fn     Func[A, R]
	notify Notifier
	opts   Options
	log    *zap.Logger

	mu    sync.Mutex
	seq   uint64
	state State
}

// New wraps fn. notify may be nil to suppress toasts.
func New[A, R any](notify Notifier, fn Func[A, R], opts Options) *Mutation[A, R] {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Mutation[A, R]{fn: fn, notify: notify, opts: opts, log: log}
}

// State returns a snapshot of the current state.
func (m *Mutation[A, R]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending reports whether the latest call is still running.
func (m *Mutation[A, R]) Pending() bool { return m.State().Pending }

// ErrorMessage is the message of the latest failed call, or "".
func (m *Mutation[A, R]) ErrorMessage() string { return m.State().ErrorMessage }

// Call runs the wrapped operation. The error is returned unchanged after
// being surfaced as a toast.
func (m *Mutation[A, R]) Call(ctx context.Context, arg A) (R, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.state = State{Pending: true}
	m.mu.Unlock()

	started := time.Now()
	res, err := m.fn(ctx, arg)

	var msg string
	if err != nil {
		msg = Message(err, m.opts.ErrorMessage)
	}

	m.mu.Lock()
	current := seq == m.seq
	if current {
		m.state = State{ErrorMessage: msg}
	}
	m.mu.Unlock()

	switch {
	case err != nil:
		m.log.Debug("mutation failed", zap.String("name", m.opts.Name), zap.Uint64("seq", seq), zap.Error(err))
		if m.notify != nil {
			m.notify.Error(msg)
		}
	case m.opts.SuccessMessage != "" && m.notify != nil:
		m.notify.Success(m.opts.SuccessMessage)
	}

	if m.opts.Observer != nil {
		m.opts.Observer.Settled(ctx, Outcome{
			Name:       m.opts.Name,
			Seq:        seq,
			Started:    started,
			Finished:   time.Now(),
			Err:        err,
			Message:    msg,
			Superseded: !current,
		})
	}
	return res, err
}

// Message extracts a human-readable message from err: the server-supplied
// message when there is one, then fallback, then FallbackMessage.
func Message(err error, fallback string) string {
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) {
		if s := sm.ServerMessage(); s != "" {
			return s
		}
	}
	if fallback != "" {
		return fallback
	}
	return FallbackMessage
}
