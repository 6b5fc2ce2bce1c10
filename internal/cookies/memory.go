package cookies

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/nullscape-admin/internal/errs"
)

// Memory is an in-process Store. It is used for --store=memory and in tests.
type Memory struct {
	mu  sync.Mutex
	jar map[string]Cookie
	now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jar: map[string]Cookie{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.jar[name]
	if !ok {
		return "", errs.ErrNoToken
	}
	if c.Expired(m.now()) {
		delete(m.jar, name)
		return "", errs.ErrNoToken
	}
	return c.Value, nil
}

func (m *Memory) Set(_ context.Context, c Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jar[c.Name] = c
	return nil
}

func (m *Memory) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jar, name)
	return nil
}
