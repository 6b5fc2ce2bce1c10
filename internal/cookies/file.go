package cookies

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/and161185/nullscape-admin/internal/errs"
)

// DefaultDir returns the per-user config directory for nsadmin state.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "nullscape")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nullscape")
}

// File keeps cookies in a single JSON document (cookies.json) with 0600 permissions.
type File struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFile returns a file-backed store rooted at dir.
func NewFile(dir string) *File {
	return &File{path: filepath.Join(dir, "cookies.json"), now: time.Now}
}

// Path returns the location of the backing file.
func (f *File) Path() string { return f.path }

func (f *File) load() (map[string]Cookie, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Cookie{}, nil
	}
	if err != nil {
		return nil, err
	}
	jar := map[string]Cookie{}
	if len(b) == 0 {
		return jar, nil
	}
	if err := json.Unmarshal(b, &jar); err != nil {
		return nil, err
	}
	return jar, nil
}

func (f *File) save(jar map[string]Cookie) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Get(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jar, err := f.load()
	if err != nil {
		return "", err
	}
	c, ok := jar[name]
	if !ok || c.Expired(f.now()) {
		return "", errs.ErrNoToken
	}
	return c.Value, nil
}

func (f *File) Set(_ context.Context, c Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	jar, err := f.load()
	if err != nil {
		return err
	}
	jar[c.Name] = c
	return f.save(jar)
}

func (f *File) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	jar, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := jar[name]; !ok {
		return nil
	}
	delete(jar, name)
	return f.save(jar)
}
