package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/errs"
	"github.com/and161185/nullscape-admin/internal/model"
)

type fakeBackend struct {
	user     *model.User
	meErr    error
	loginErr error
	cleared  int
	logins   int
}

func (f *fakeBackend) Me(ctx context.Context) (*model.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.meErr = nil
	return &api.LoginResult{User: *f.user}, nil
}

func (f *fakeBackend) ClearTokens(ctx context.Context) error {
	f.cleared++
	return nil
}

var admin = &model.User{ID: "u1", Name: "Ada", Email: "ada@x.io", Roles: []string{"Admin"}}

func TestProvider_StartAuthenticated(t *testing.T) {
	b := &fakeBackend{user: admin}
	p := New(b, NewRouter("/dashboard"), WithLogger(zaptest.NewLogger(t)))
	assert.True(t, p.Loading())

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, Authenticated, p.Status())
	assert.Equal(t, "Ada", p.User().Name)
}

func TestProvider_StartAnonymous(t *testing.T) {
	b := &fakeBackend{meErr: errs.ErrUnauthorized}
	p := New(b, NewRouter("/dashboard"))

	err := p.Start(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, Anonymous, p.Status())
	assert.Nil(t, p.User())
}

func TestProvider_HasRole(t *testing.T) {
	b := &fakeBackend{meErr: errs.ErrUnauthorized}
	p := New(b, NewRouter("/"))
	assert.False(t, p.HasRole("Admin"))

	_ = p.Start(context.Background())
	assert.False(t, p.HasRole("Admin"))

	b.meErr = nil
	b.user = admin
	require.NoError(t, p.RefreshUser(context.Background()))
	assert.True(t, p.HasRole("Admin"))
	assert.True(t, p.HasRole("Editor", "Admin"))
	assert.False(t, p.HasRole("SuperAdmin"))
	assert.False(t, p.HasRole())
}

func TestProvider_RefreshFailureClearsTokensOnlyOnLoginPage(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantCleared int
	}{
		{"elsewhere keeps tokens", "/blog", 0},
		{"login page clears tokens", LoginPath, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{user: admin}
			p := New(b, NewRouter(tt.path))
			require.NoError(t, p.Start(context.Background()))

			b.meErr = errors.New("network down")
			require.Error(t, p.RefreshUser(context.Background()))
			assert.Equal(t, Anonymous, p.Status())
			assert.Nil(t, p.User())
			assert.Equal(t, tt.wantCleared, b.cleared)
		})
	}
}

func TestProvider_CustomClearPolicy(t *testing.T) {
	b := &fakeBackend{meErr: errs.ErrUnauthorized}
	p := New(b, NewRouter("/blog"), WithClearPolicy(func(path string) bool { return path != LoginPath }))
	_ = p.Start(context.Background())
	assert.Equal(t, 1, b.cleared)
}

func TestProvider_Logout(t *testing.T) {
	b := &fakeBackend{user: admin}
	r := NewRouter("/blog")
	p := New(b, r)
	require.NoError(t, p.Start(context.Background()))

	require.NoError(t, p.Logout(context.Background()))
	assert.Equal(t, Anonymous, p.Status())
	assert.False(t, p.HasRole("Admin"))
	assert.Equal(t, 1, b.cleared)
	assert.Equal(t, LoginPath, r.Path())
	assert.Equal(t, []string{"/blog", LoginPath}, r.History())
}

func TestProvider_Login(t *testing.T) {
	b := &fakeBackend{user: admin, meErr: errs.ErrUnauthorized}
	p := New(b, NewRouter(LoginPath))
	_ = p.Start(context.Background())
	require.Equal(t, Anonymous, p.Status())

	b.loginErr = errors.New("Invalid credentials")
	require.Error(t, p.Login(context.Background(), "ada@x.io", "nope"))
	assert.Equal(t, Anonymous, p.Status())

	b.loginErr = nil
	require.NoError(t, p.Login(context.Background(), "ada@x.io", "secret"))
	assert.Equal(t, Authenticated, p.Status())
	assert.Equal(t, 2, b.logins)
}

func TestProvider_SubscribeSeesTransitions(t *testing.T) {
	b := &fakeBackend{user: admin}
	p := New(b, NewRouter("/"))

	var seen []Status
	unsub := p.Subscribe(func(s Snapshot) { seen = append(seen, s.Status) })
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Logout(context.Background()))
	unsub()
	require.NoError(t, p.RefreshUser(context.Background()))

	assert.Equal(t, []Status{Loading, Authenticated, Anonymous}, seen)
}

func TestProvider_UserIsACopy(t *testing.T) {
	b := &fakeBackend{user: &model.User{ID: "u1", Roles: []string{"Admin"}}}
	p := New(b, NewRouter("/"))
	require.NoError(t, p.Start(context.Background()))

	u := p.User()
	u.Roles[0] = "SuperAdmin"
	assert.True(t, p.HasRole("Admin"))
	assert.False(t, p.HasRole("SuperAdmin"))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "anonymous", Anonymous.String())
}
