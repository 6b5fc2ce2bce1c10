// Package resource describes the backend collections the dashboard manages
// and gives typed access to them.
package resource

import (
	"sort"
	"strings"
)

// Admin roles gate the management screens.
var AdminRoles = []string{"Admin", "SuperAdmin"}

// Column is one list column: a header and the record field it shows.
type Column struct {
	Header string
	Field  string
}

// Resource describes one backend collection.
type Resource struct {
	Name     string
	Title    string
	Singular string
	Path     string
	Columns  []Column
	// Filters are extra list filters beyond q and status.
	Filters    []string
	AdminOnly  bool
	ReadOnly   bool
	ExportPath string
}

// Roles returns the roles allowed to use the resource, or nil for everyone.
func (r Resource) Roles() []string {
	if r.AdminOnly {
		return AdminRoles
	}
	return nil
}


var (
	colStatus  = Column{"Status", "status"}
	colName    = Column{"Name", "name"}
	colCreated = Column{"Created", "createdAt"}
)

var registry = []Resource{
	{Name: "services", Title: "Services", Singular: "Service", Path: "/services",
		Columns: []Column{colName, colStatus, colCreated}},
	{Name: "service-categories", Title: "Service Categories", Singular: "Category", Path: "/service-categories",
		Columns: []Column{colName, colStatus}},
	{Name: "blog", Title: "Blog", Singular: "Post", Path: "/blog", Filters: []string{"category"},
		Columns: []Column{{"Title", "title"}, colStatus, {"Published", "publishedAt"}}},
	{Name: "blog-categories", Title: "Blog Categories", Singular: "Category", Path: "/blog-categories",
		Columns: []Column{colName, colStatus}},
	{Name: "portfolio", Title: "Portfolio", Singular: "Project", Path: "/portfolio", Filters: []string{"category"},
		Columns: []Column{colName, {"Category", "category"}, colStatus}},
	{Name: "portfolio-categories", Title: "Portfolio Categories", Singular: "Category", Path: "/portfolio-categories",
		Columns: []Column{colName, colStatus}},
	{Name: "testimonials", Title: "Testimonials", Singular: "Testimonial", Path: "/testimonials",
		Columns: []Column{{"Client", "clientName"}, {"Rating", "rating"}, {"Testimonial", "testimonial"}, colStatus}},
	{Name: "team", Title: "Team", Singular: "Member", Path: "/team",
		Columns: []Column{colName, {"Role", "role"}, {"Email", "email"}, colStatus}},
	{Name: "tech-stack", Title: "Tech Stack", Singular: "Technology", Path: "/tech-stack",
		Columns: []Column{colName, {"Category", "category"}, colStatus, {"Order", "order"}}},
	{Name: "pricing", Title: "Pricing Plans", Singular: "Pricing plan", Path: "/pricing",
		Columns: []Column{colName, {"Price", "price"}, {"Period", "period"}, colStatus}},
	{Name: "partners", Title: "Trusted Partners", Singular: "Partner", Path: "/partners",
		Columns: []Column{colName, {"Subtitle", "subtitle"}, colStatus, {"Order", "order"}}},
	{Name: "cms", Title: "CMS Pages", Singular: "Page", Path: "/cms/pages",
		Columns: []Column{{"Page", "page"}, {"Sections", "sections"}, {"Last Updated", "updatedAt"}}},
	{Name: "jobs", Title: "Jobs", Singular: "Job", Path: "/jobs", AdminOnly: true,
		Columns: []Column{{"Title", "title"}, {"Location", "location"}, colStatus}},
	{Name: "inquiries", Title: "Inquiries", Singular: "Inquiry", Path: "/inquiries", AdminOnly: true, ReadOnly: true,
		Filters: []string{"resolved"}, ExportPath: "/inquiries/export/csv",
		Columns: []Column{{"Type", "type"}, colName, {"Email", "email"}, {"Date", "createdAt"}, {"Resolved", "resolved"}}},
	{Name: "newsletter", Title: "Newsletter", Singular: "Subscriber", Path: "/newsletter", AdminOnly: true, ReadOnly: true,
		ExportPath: "/newsletter/export/csv",
		Columns: []Column{{"Email", "email"}, {"Subscribed", "createdAt"}, colStatus}},
	{Name: "seo", Title: "SEO", Singular: "SEO settings", Path: "/cms/seo", AdminOnly: true,
		Columns: []Column{{"Robots", "robotsTxt"}}},
	{Name: "activity", Title: "Activity Logs", Singular: "Entry", Path: "/activity", ReadOnly: true,
		Columns: []Column{{"When", "createdAt"}, {"Action", "action"}, {"Entity", "entity"}}},
}

// All returns every resource sorted by name.
func All() []Resource {
	out := append([]Resource(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a resource by name, case-insensitively.
func Lookup(name string) (Resource, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range registry {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// Names lists resource names for help output.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.Name
	}
	return out
}
