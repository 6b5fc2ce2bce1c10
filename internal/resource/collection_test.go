package resource_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/apitest"
	"github.com/and161185/nullscape-admin/internal/cookies"
	"github.com/and161185/nullscape-admin/internal/errs"
	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/resource"
)

func loggedIn(t *testing.T, email string) (*apitest.Server, *api.Client) {
	t.Helper()
	srv, base := apitest.Start(t)
	c := api.New(base, cookies.NewMemory(), api.WithLogger(zaptest.NewLogger(t)))
	_, err := c.Login(context.Background(), email, apitest.FixturePassword)
	require.NoError(t, err)
	return srv, c
}

func TestListQuery_Values(t *testing.T) {
	tests := []struct {
		name string
		q    resource.ListQuery
		want string
	}{
		{"defaults", resource.ListQuery{}, "limit=10&page=1"},
		{"all set", resource.ListQuery{Q: "go", Status: "draft", Page: 2, Limit: 50}, "limit=50&page=2&q=go&status=draft"},
		{"empty filter skipped", resource.ListQuery{Filters: map[string]string{"category": "", "resolved": "true"}}, "limit=10&page=1&resolved=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Values().Encode())
		})
	}
}

func TestRegistry(t *testing.T) {
	inq, ok := resource.Lookup("Inquiries")
	require.True(t, ok)
	assert.True(t, inq.AdminOnly)
	assert.Equal(t, resource.AdminRoles, inq.Roles())
	assert.Equal(t, "/inquiries/export/csv", inq.ExportPath)

	blog, ok := resource.Lookup("blog")
	require.True(t, ok)
	assert.Nil(t, blog.Roles())

	_, ok = resource.Lookup("nope")
	assert.False(t, ok)

	names := resource.Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "newsletter")
}

func TestCollection_CRUD(t *testing.T) {
	_, c := loggedIn(t, apitest.Editor.Email)
	ctx := context.Background()
	blog, _ := resource.Lookup("blog")
	coll := resource.For[model.Record](c, blog)

	created, err := coll.Create(ctx, model.Record{"title": "First", "status": "draft"})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)

	got, err := coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Field("title"))

	updated, err := coll.Update(ctx, id, model.Record{"status": "published"})
	require.NoError(t, err)
	assert.Equal(t, "published", updated.Field("status"))

	page, err := coll.List(ctx, resource.ListQuery{Status: "published"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Pages)

	require.NoError(t, coll.Delete(ctx, id))
	_, err = coll.Get(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	err = coll.Delete(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Error(t, coll.Delete(ctx, ""))
}

func TestCollection_IDsWithReservedCharacters(t *testing.T) {
	srv, c := loggedIn(t, apitest.Editor.Email)
	ctx := context.Background()
	srv.Seed("/blog",
		model.Record{"_id": "a", "title": "Plain"},
		model.Record{"_id": "a?b", "title": "Query"},
		model.Record{"_id": "a/b", "title": "Slash"},
		model.Record{"_id": "a#b", "title": "Fragment"},
	)
	coll := resource.NewCollection[model.Record](c, "/blog")

	for id, title := range map[string]string{"a?b": "Query", "a/b": "Slash", "a#b": "Fragment"} {
		got, err := coll.Get(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, title, got.Field("title"), id)
	}

	updated, err := coll.Update(ctx, "a/b", model.Record{"title": "Slash 2"})
	require.NoError(t, err)
	assert.Equal(t, "a/b", updated.ID())

	require.NoError(t, coll.Delete(ctx, "a?b"))
	require.NoError(t, coll.Delete(ctx, "a#b"))

	var left []string
	for _, rec := range srv.Records("/blog") {
		left = append(left, rec.ID())
	}
	assert.ElementsMatch(t, []string{"a", "a/b"}, left)
	plain, err := coll.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Plain", plain.Field("title"))
}

func TestCollection_AdminOnlyForbidden(t *testing.T) {
	_, c := loggedIn(t, apitest.Editor.Email)
	inq, _ := resource.Lookup("inquiries")
	_, err := resource.For[model.Record](c, inq).List(context.Background(), resource.ListQuery{})
	require.ErrorIs(t, err, errs.ErrForbidden)
	assert.Equal(t, "Forbidden", err.Error())
}

func TestCollection_TypedItems(t *testing.T) {
	srv, c := loggedIn(t, apitest.Admin.Email)
	srv.Seed("/team", model.Record{"name": "Grace", "role": "CTO", "status": "active"})

	type member struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	page, err := resource.NewCollection[member](c, "/team").List(context.Background(), resource.ListQuery{Q: "grace"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "CTO", page.Items[0].Role)
}

func TestSEO_LoadSave(t *testing.T) {
	_, c := loggedIn(t, apitest.Admin.Email)
	ctx := context.Background()
	seo := resource.NewSEO(c, c.BaseURL())

	rec, err := seo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, resource.DefaultRobotsTxt, seo.RobotsTxt(ctx))

	rec, err = seo.Save(ctx, nil, "User-agent: *\nDisallow: /admin")
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID())

	rec, err = seo.Save(ctx, rec, "User-agent: *\nDisallow: /")
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *\nDisallow: /", seo.RobotsTxt(ctx))

	assert.Equal(t, c.SiteURL()+"/api/v1/robots.txt", seo.RobotsURL())
	assert.Equal(t, c.SiteURL()+"/api/v1/sitemap.xml", seo.SitemapURL())
}

func TestFetchSummary(t *testing.T) {
	srv, c := loggedIn(t, apitest.Admin.Email)
	srv.Seed("/services", model.Record{"name": "a"}, model.Record{"name": "b"})
	srv.Seed("/inquiries", model.Record{"name": "Bob"})

	sum, err := resource.FetchSummary(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalServices)
	assert.Len(t, sum.LatestInquiries, 1)
}
