// Package session holds application-wide knowledge of who is logged in.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/model"
)

// Status is the session state.
type Status int

const (
	Loading Status = iota
	Authenticated
	Anonymous
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot is the observable session. User is nil unless Authenticated.
type Snapshot struct {
	Status Status
	User   *model.User
}

// Backend is the part of the API client the session drives. *api.Client satisfies it.
type Backend interface {
	Me(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	ClearTokens(ctx context.Context) error
}

// ClearPolicy decides, from the current path, whether a failed refresh also
// clears the persisted tokens.
type ClearPolicy func(path string) bool

// ClearOnLoginPage clears tokens only when the navigator is already on LoginPath.
func ClearOnLoginPage(path string) bool { return path == LoginPath }

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(p *Provider) { p.log = l } }

// WithClearPolicy replaces ClearOnLoginPage.
func WithClearPolicy(cp ClearPolicy) Option { return func(p *Provider) { p.clear = cp } }

// Provider owns the single session of the process.
type Provider struct {
	backend Backend
	nav     Navigator
	log     *zap.Logger
	clear   ClearPolicy

	mu     sync.Mutex
	status Status
	user   *model.User
	subs   map[int]func(Snapshot)
	nextID int
}

// New returns a provider in the Loading state.
func New(backend Backend, nav Navigator, opts ...Option) *Provider {
	p := &Provider{
		backend: backend,
		nav:     nav,
		log:     zap.NewNop(),
		clear:   ClearOnLoginPage,
		status:  Loading,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start probes the session once and leaves Loading.
func (p *Provider) Start(ctx context.Context) error {
	return p.RefreshUser(ctx)
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Status returns the current state.
func (p *Provider) Status() Status { return p.Snapshot().Status }

// Loading reports whether the startup probe has not finished yet.
func (p *Provider) Loading() bool { return p.Status() == Loading }

// User returns a copy of the current user or nil.
func (p *Provider) User() *model.User { return p.Snapshot().User }

// HasRole reports whether the current user holds any of roles. Anonymous sessions hold none.
func (p *Provider) HasRole(roles ...string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user.HasAnyRole(roles...)
}

// RefreshUser re-probes the session endpoint. On failure the user is dropped;
// persisted tokens are cleared only as the clear policy allows.
func (p *Provider) RefreshUser(ctx context.Context) error {
	u, err := p.backend.Me(ctx)
	if err != nil {
		p.set(Anonymous, nil)
		if p.clear(p.nav.Path()) {
			if cerr := p.backend.ClearTokens(ctx); cerr != nil {
				p.log.Warn("clear tokens", zap.Error(cerr))
			}
		}
		return fmt.Errorf("refresh session: %w", err)
	}
	p.set(Authenticated, u)
	return nil
}

// Login authenticates and then refreshes the session.
func (p *Provider) Login(ctx context.Context, email, password string) error {
	if _, err := p.backend.Login(ctx, email, password); err != nil {
		return err
	}
	return p.RefreshUser(ctx)
}

// Logout clears the tokens and the user and navigates to the login page.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.backend.ClearTokens(ctx)
	p.set(Anonymous, nil)
	p.nav.Navigate(LoginPath)
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Subscribe calls fn with the current snapshot and after every transition.
// fn runs on the goroutine that caused the transition.
func (p *Provider) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	snap := p.snapshotLocked()
	p.mu.Unlock()

	fn(snap)
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) set(status Status, u *model.User) {
	p.mu.Lock()
	from := p.status
	p.status = status
	p.user = u
	snap := p.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	if from != status {
		p.log.Info("session", zap.Stringer("from", from), zap.Stringer("to", status))
	}
	for _, fn := range fns {
		fn(snap)
	}
}

func (p *Provider) snapshotLocked() Snapshot {
	s := Snapshot{Status: p.status}
	if p.user != nil {
		u := *p.user
		u.Roles = append([]string(nil), p.user.Roles...)
		s.User = &u
	}
	return s
}
