package resource

import (
	"context"
	"strings"

	"github.com/and161185/nullscape-admin/internal/model"
)

// DefaultRobotsTxt is offered when no SEO settings exist yet.
const DefaultRobotsTxt = "User-agent: *\nAllow: /\nSitemap: /sitemap.xml"

// SEO manages the single SEO settings record.
type SEO struct {
	rq      Requester
	baseURL string
}

// NewSEO binds the settings record to rq. baseURL is the API root.
func NewSEO(rq Requester, baseURL string) *SEO {
	return &SEO{rq: rq, baseURL: baseURL}
}

// Load returns the stored settings, or nil when none exist.
func (s *SEO) Load(ctx context.Context) (model.Record, error) {
	seo, _ := Lookup("seo")
	page, err := For[model.Record](s.rq, seo).List(ctx, ListQuery{})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return page.Items[0], nil
}

// RobotsTxt returns the stored robots.txt or DefaultRobotsTxt. Load failures
// fall back to the default.
func (s *SEO) RobotsTxt(ctx context.Context) string {
	rec, err := s.Load(ctx)
	if err != nil || rec == nil {
		return DefaultRobotsTxt
	}
	if v, ok := rec["robotsTxt"].(string); ok && v != "" {
		return v
	}
	return DefaultRobotsTxt
}

// Save updates the existing record, or creates one when there is none.
func (s *SEO) Save(ctx context.Context, current model.Record, robotsTxt string) (model.Record, error) {
	seo, _ := Lookup("seo")
	coll := For[model.Record](s.rq, seo)
	if id := current.ID(); id != "" {
		body := model.Record{}
		for k, v := range current {
			body[k] = v
		}
		body["robotsTxt"] = robotsTxt
		out, err := coll.Update(ctx, id, body)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = body
		}
		return out, nil
	}
	return coll.Create(ctx, model.Record{"robotsTxt": robotsTxt})
}

// RobotsURL is the public robots.txt address.
func (s *SEO) RobotsURL() string { return s.siteURL() + "/api/v1/robots.txt" }

// SitemapURL is the public sitemap address.
func (s *SEO) SitemapURL() string { return s.siteURL() + "/api/v1/sitemap.xml" }

func (s *SEO) siteURL() string { return strings.Replace(s.baseURL, "/api/v1", "", 1) }
