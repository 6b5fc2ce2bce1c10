package apitest

import (
	"net/http/httptest"
	"testing"

	"github.com/and161185/nullscape-admin/internal/model"
)

// Fixture accounts, both using FixturePassword.
var (
	Admin  = model.User{ID: "u-admin", Name: "Ada Admin", Email: "admin@nullscape.io", Roles: []string{"Admin"}}
	Editor = model.User{ID: "u-editor", Name: "Eddie Editor", Email: "editor@nullscape.io", Roles: []string{"Editor"}}
)

// FixturePassword is the password of the fixture accounts.
const FixturePassword = "nullscape"

// SeedUsers registers Admin and Editor.
func (s *Server) SeedUsers() error {
	for _, u := range []model.User{Admin, Editor} {
		if _, err := s.AddUser(u, FixturePassword); err != nil {
			return err
		}
	}
	return nil
}

// Start serves a backend with the fixture accounts on httptest and returns
// it with the API base URL. The server is closed on test cleanup.
func Start(t testing.TB, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	if err := s.SeedUsers(); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL + Prefix
}
