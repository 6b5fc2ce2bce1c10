package session

import "sync"

// LoginPath is the unauthenticated entry point.
const LoginPath = "/login"

// Navigator is the routing surface the session needs.
type Navigator interface {
	Path() string
	Navigate(path string)
}

// Router is an in-memory Navigator that keeps its history.
type Router struct {
	mu      sync.Mutex
	history []string
}

// NewRouter starts at path.
func NewRouter(path string) *Router {
	return &Router{history: []string{path}}
}

// Path returns the current location.
func (r *Router) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

// Navigate moves to path. Navigating to the current path is a no-op.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.history[len(r.history)-1] == path {
		return
	}
	r.history = append(r.history, path)
}

// History returns every visited location, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
