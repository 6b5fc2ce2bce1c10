package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roles []string

func (r roles) HasRole(want ...string) bool {
	for _, w := range want {
		for _, h := range r {
			if w == h {
				return true
			}
		}
	}
	return false
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestVisible_FiltersAdminEntries(t *testing.T) {
	editor := Visible(roles{"Editor"})
	assert.NotContains(t, names(editor), "Inquiries")
	assert.NotContains(t, names(editor), "SEO")
	assert.Contains(t, names(editor), "Uploads")
	assert.Len(t, editor, len(Menu)-4)

	for _, r := range []string{"Admin", "SuperAdmin"} {
		assert.Len(t, Visible(roles{r}), len(Menu), r)
	}
	assert.Len(t, Visible(roles(nil)), len(Menu)-4)
}

func TestGrouped_KeepsOrder(t *testing.T) {
	groups := Grouped(Visible(roles{"Admin"}))
	require.Len(t, groups, 4)
	assert.Equal(t, "Main", groups[0].Name)
	assert.Equal(t, "Content", groups[1].Name)
	assert.Equal(t, "Management", groups[2].Name)
	assert.Equal(t, []string{"SEO", "Uploads"}, names(groups[3].Items))
}

func TestActive(t *testing.T) {
	items := Visible(roles{"Admin"})
	it, ok := Active(items, "/blog/123")
	require.True(t, ok)
	assert.Equal(t, "Blog", it.Name)

	it, ok = Active(items, "/blog-categories/new")
	require.True(t, ok)
	assert.Equal(t, "Blog Categories", it.Name)

	_, ok = Active(items, "/login")
	assert.False(t, ok)
}
