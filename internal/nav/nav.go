// Package nav is the dashboard menu, filtered by role.
package nav

import "github.com/and161185/nullscape-admin/internal/resource"

// Item is one menu entry. Empty Roles means visible to everyone.
type Item struct {
	Name     string
	Href     string
	Group    string
	Resource string
	Roles    []string
}

// RoleChecker answers role queries; *session.Provider satisfies it.
type RoleChecker interface {
	HasRole(roles ...string) bool
}

// Menu is the full dashboard menu in display order.
var Menu = []Item{
	{Name: "Dashboard", Href: "/dashboard", Group: "Main"},
	{Name: "Services", Href: "/services", Group: "Content", Resource: "services"},
	{Name: "CMS Pages", Href: "/cms/pages", Group: "Content", Resource: "cms"},
	{Name: "Blog", Href: "/blog", Group: "Content", Resource: "blog"},
	{Name: "Blog Categories", Href: "/blog-categories", Group: "Content", Resource: "blog-categories"},
	{Name: "Portfolio", Href: "/portfolio", Group: "Content", Resource: "portfolio"},
	{Name: "Portfolio Categories", Href: "/portfolio-categories", Group: "Content", Resource: "portfolio-categories"},
	{Name: "Testimonials", Href: "/testimonials", Group: "Content", Resource: "testimonials"},
	{Name: "Team", Href: "/team", Group: "Content", Resource: "team"},
	{Name: "Tech Stack", Href: "/tech-stack", Group: "Content", Resource: "tech-stack"},
	{Name: "Pricing Plans", Href: "/pricing", Group: "Content", Resource: "pricing"},
	{Name: "Trusted Partners", Href: "/partners", Group: "Content", Resource: "partners"},
	{Name: "Service Categories", Href: "/service-categories", Group: "Content", Resource: "service-categories"},
	{Name: "Jobs", Href: "/jobs", Group: "Management", Resource: "jobs", Roles: resource.AdminRoles},
	{Name: "Inquiries", Href: "/inquiries", Group: "Management", Resource: "inquiries", Roles: resource.AdminRoles},
	{Name: "Newsletter", Href: "/newsletter", Group: "Management", Resource: "newsletter", Roles: resource.AdminRoles},
	{Name: "SEO", Href: "/seo", Group: "Settings", Resource: "seo", Roles: resource.AdminRoles},
	{Name: "Uploads", Href: "/uploads", Group: "Settings"},
}

// Visible returns the entries rc may see, in menu order.
func Visible(rc RoleChecker) []Item {
	out := make([]Item, 0, len(Menu))
	for _, it := range Menu {
		if len(it.Roles) == 0 || rc.HasRole(it.Roles...) {
			out = append(out, it)
		}
	}
	return out
}

// Group is a titled run of menu entries.
type Group struct {
	Name  string
	Items []Item
}

// Grouped splits items into groups, keeping first-seen group order.
func Grouped(items []Item) []Group {
	var out []Group
	idx := map[string]int{}
	for _, it := range items {
		i, ok := idx[it.Group]
		if !ok {
			i = len(out)
			idx[it.Group] = i
			out = append(out, Group{Name: it.Group})
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out
}

// Active returns the entry whose Href is the longest prefix of path.
func Active(items []Item, path string) (Item, bool) {
	var best Item
	found := false
	for _, it := range items {
		if hasPathPrefix(path, it.Href) && len(it.Href) > len(best.Href) {
			best, found = it, true
		}
	}
	return best, found
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
