package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/nullscape-admin/internal/model"
)

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func login(t *testing.T, base, email string) *client {
	t.Helper()
	c := &client{t: t, base: base}
	res, out := c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": FixturePassword})
	require.Equal(t, http.StatusOK, res.StatusCode)
	tokens := out["tokens"].(map[string]any)
	c.token = tokens["accessToken"].(string)
	return c
}

func TestServer_LoginAndMe(t *testing.T) {
	_, base := Start(t, WithLogger(zaptest.NewLogger(t)))
	anon := &client{t: t, base: base}

	res, out := anon.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Unauthorized", out["message"])

	res, out = anon.do(http.MethodPost, "/auth/login", map[string]string{"email": Admin.Email, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Invalid credentials", out["message"])

	c := login(t, base, Admin.Email)
	res, out = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, Admin.Email, out["email"])
}

func TestServer_LoginThrottle(t *testing.T) {
	_, base := Start(t)
	anon := &client{t: t, base: base}
	var last *http.Response
	for i := 0; i < 5; i++ {
		last, _ = anon.do(http.MethodPost, "/auth/login", map[string]string{"email": Editor.Email, "password": "bad"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)

	res, _ := anon.do(http.MethodPost, "/auth/login", map[string]string{"email": Editor.Email, "password": FixturePassword})
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestServer_RefreshRotatesTokens(t *testing.T) {
	s, base := Start(t)
	anon := &client{t: t, base: base}
	_, out := anon.do(http.MethodPost, "/auth/login", map[string]string{"email": Admin.Email, "password": FixturePassword})
	rt := out["tokens"].(map[string]any)["refreshToken"].(string)

	res, out := anon.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": rt})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, out["tokens"].(map[string]any)["accessToken"])
	assert.Equal(t, 1, s.Refreshes())

	res, _ = anon.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": rt})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestServer_ExpireAccessTokens(t *testing.T) {
	s, base := Start(t)
	c := login(t, base, Admin.Email)
	s.ExpireAccessTokens()
	res, _ := c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestServer_TokenExpiry(t *testing.T) {
	var offset atomic.Int64
	start := time.Now()
	clock := func() time.Time { return start.Add(time.Duration(offset.Load())) }
	_, base := Start(t, WithNow(clock), WithAccessTTL(time.Minute))
	c := login(t, base, Admin.Email)

	res, _ := c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	offset.Store(int64(2 * time.Minute))
	res, _ = c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestServer_CRUD(t *testing.T) {
	s, base := Start(t)
	c := login(t, base, Editor.Email)

	res, created := c.do(http.MethodPost, "/blog", map[string]any{"title": "Hello", "slug": "hello", "status": "draft"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	id := created["_id"].(string)

	res, out := c.do(http.MethodPost, "/blog", map[string]any{"title": "Again", "slug": "hello"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "Slug already exists", out["message"])

	res, out = c.do(http.MethodPut, "/blog/"+id, map[string]any{"status": "published"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "published", out["status"])
	assert.Equal(t, "Hello", out["title"])

	res, out = c.do(http.MethodGet, "/blog?status=published&page=1&limit=10", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, out["items"], 1)
	assert.EqualValues(t, 1, out["pages"])

	res, _ = c.do(http.MethodDelete, "/blog/"+id, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, out = c.do(http.MethodGet, "/blog/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Post not found", out["message"])

	acts := s.Activity()
	require.Len(t, acts, 3)
	assert.Equal(t, "delete", acts[0].Action)
	assert.Equal(t, "blog", acts[0].Entity)
	assert.Equal(t, Editor.Email, acts[0].User.Email)
}

func TestServer_ListPaginationAndSearch(t *testing.T) {
	s, base := Start(t)
	for i := 0; i < 25; i++ {
		s.Seed("/services", model.Record{"name": "svc", "status": "active"})
	}
	s.Seed("/services", model.Record{"name": "Cloud Migration", "status": "draft"})
	c := login(t, base, Editor.Email)

	_, out := c.do(http.MethodGet, "/services?page=3&limit=10", nil)
	assert.Len(t, out["items"], 6)
	assert.EqualValues(t, 3, out["pages"])

	_, out = c.do(http.MethodGet, "/services?q=cloud", nil)
	assert.Len(t, out["items"], 1)
}

func TestServer_AdminOnlyAndExport(t *testing.T) {
	s, base := Start(t)
	s.Seed("/inquiries", model.Record{"type": "contact", "name": "Bob", "email": "bob@x.io", "resolved": false})

	editor := login(t, base, Editor.Email)
	res, out := editor.do(http.MethodGet, "/inquiries", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "Forbidden", out["message"])

	admin := login(t, base, Admin.Email)
	req, err := http.NewRequest(http.MethodGet, base+"/inquiries/export/csv", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin.token)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusOK, raw.StatusCode)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(raw.Body)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "type,name,email,createdAt,resolved", lines[0])
	assert.Equal(t, "contact,Bob,bob@x.io,,false", lines[1])

	res, _ = admin.do(http.MethodPost, "/inquiries", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestServer_RobotsFallsBackToDefault(t *testing.T) {
	s, base := Start(t)
	res, err := http.Get(base + "/robots.txt")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	_ = res.Body.Close()
	assert.Contains(t, buf.String(), "User-agent: *")

	s.Seed("/cms/seo", model.Record{"robotsTxt": "User-agent: *\nDisallow: /"})
	res, err = http.Get(base + "/robots.txt")
	require.NoError(t, err)
	buf.Reset()
	_, _ = buf.ReadFrom(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, "User-agent: *\nDisallow: /", buf.String())
}

func TestThrottle_WindowAndReset(t *testing.T) {
	now := time.Now()
	th := newThrottle(time.Minute, 2, time.Minute, func() time.Time { return now })

	blocked, _ := th.Failure("a")
	assert.False(t, blocked)
	blocked, retry := th.Failure("a")
	assert.True(t, blocked)
	assert.Equal(t, time.Minute, retry)

	ok, _ := th.Allow("a")
	assert.False(t, ok)
	now = now.Add(2 * time.Minute)
	ok, _ = th.Allow("a")
	assert.True(t, ok)

	_, _ = th.Failure("b")
	th.Success("b")
	blocked, _ = th.Failure("b")
	assert.False(t, blocked)
}
