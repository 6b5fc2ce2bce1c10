package apitest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/resource"
)

// Seed appends records to the collection at path, assigning ids where missing.
func (s *Server) Seed(path string, recs ...model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		cp := cloneRecord(rec)
		if cp.ID() == "" {
			cp["_id"] = newID()
		}
		s.collections[path] = append(s.collections[path], cp)
	}
}

// Records returns a copy of the collection at path.
func (s *Server) Records(path string) []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Record, 0, len(s.collections[path]))
	for _, rec := range s.collections[path] {
		out = append(out, cloneRecord(rec))
	}
	return out
}

// Activity returns the recorded activity, newest first.
func (s *Server) Activity() []model.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ActivityLog, len(s.activity))
	for i, a := range s.activity {
		out[len(out)-1-i] = a
	}
	return out
}

func (s *Server) mountCollection(r chi.Router, res resource.Resource) {
	r.Route(res.Path, func(r chi.Router) {
		if roles := res.Roles(); roles != nil {
			r.Use(requireRole(roles...))
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) { s.handleList(w, r, res) })
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) { s.handleGet(w, r, res) })
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) { s.handleUpdate(w, r, res) })
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) { s.handleDelete(w, r, res) })
		if !res.ReadOnly {
			r.Post("/", func(w http.ResponseWriter, r *http.Request) { s.handleCreate(w, r, res) })
		}
		if res.ExportPath != "" {
			r.Get("/export/csv", func(w http.ResponseWriter, r *http.Request) { s.handleExport(w, r, res) })
		}
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	q := r.URL.Query()
	page, limit := pageParams(q.Get("page"), q.Get("limit"), 10)

	s.mu.Lock()
	var matched []model.Record
	for _, rec := range s.collections[res.Path] {
		if matches(rec, q.Get("q"), q.Get("status"), res.Filters, q) {
			matched = append(matched, cloneRecord(rec))
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, page, limit))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	id := entityID(r)
	s.mu.Lock()
	i := s.indexLocked(res.Path, id)
	var rec model.Record
	if i >= 0 {
		rec = cloneRecord(s.collections[res.Path][i])
	}
	s.mu.Unlock()
	if rec == nil {
		writeError(w, http.StatusNotFound, res.Singular+" not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	var rec model.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	now := s.now().UTC()
	rec["_id"] = newID()
	rec["createdAt"] = now.Format(time.RFC3339)
	rec["updatedAt"] = now.Format(time.RFC3339)

	s.mu.Lock()
	if s.slugTakenLocked(res.Path, rec, "") {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Slug already exists")
		return
	}
	s.collections[res.Path] = append(s.collections[res.Path], rec)
	s.recordLocked(r, "create", res.Name, rec.ID())
	out := cloneRecord(rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	id := entityID(r)
	var patch model.Record
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(res.Path, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, res.Singular+" not found")
		return
	}
	if s.slugTakenLocked(res.Path, patch, id) {
		writeError(w, http.StatusConflict, "Slug already exists")
		return
	}
	rec := s.collections[res.Path][i]
	for k, v := range patch {
		if k == "_id" || k == "createdAt" {
			continue
		}
		rec[k] = v
	}
	rec["updatedAt"] = s.now().UTC().Format(time.RFC3339)
	s.recordLocked(r, "update", res.Name, id)
	writeJSON(w, http.StatusOK, cloneRecord(rec))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	id := entityID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(res.Path, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, res.Singular+" not found")
		return
	}
	recs := s.collections[res.Path]
	s.collections[res.Path] = append(recs[:i:i], recs[i+1:]...)
	s.recordLocked(r, "delete", res.Name, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": res.Singular + " deleted"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	recs := s.Records(res.Path)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name+".csv"))
	cw := csv.NewWriter(w)
	header := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.Field
	}
	_ = cw.Write(header)
	for _, rec := range recs {
		row := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			if v, ok := rec[c.Field]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		_ = cw.Write(row)
	}
	cw.Flush()
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q.Get("page"), q.Get("limit"), 20)
	all := s.Activity()
	start, end, pages := bounds(len(all), page, limit)
	writeJSON(w, http.StatusOK, model.Page[model.ActivityLog]{Items: all[start:end], Page: page, Pages: pages})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.now().UTC().Format("2006-01-02")
	sum := model.Summary{
		TotalServices:   len(s.collections["/services"]),
		TotalBlogPosts:  len(s.collections["/blog"]),
		TotalProjects:   len(s.collections["/portfolio"]),
		LatestInquiries: []model.Record{},
	}
	inq := s.collections["/inquiries"]
	for i := len(inq) - 1; i >= 0; i-- {
		if created, _ := inq[i]["createdAt"].(string); strings.HasPrefix(created, today) {
			sum.EnquiriesToday++
		}
		if len(sum.LatestInquiries) < 5 {
			sum.LatestInquiries = append(sum.LatestInquiries, cloneRecord(inq[i]))
		}
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	robots := resource.DefaultRobotsTxt
	s.mu.Lock()
	if recs := s.collections["/cms/seo"]; len(recs) > 0 {
		if v, ok := recs[0]["robotsTxt"].(string); ok && v != "" {
			robots = v
		}
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(robots))
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>` + "\n"))
}

// recordLocked appends an activity entry for the request's user.
func (s *Server) recordLocked(r *http.Request, action, entity, entityID string) {
	e := model.ActivityLog{
		ID:        newID(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: s.now().UTC(),
		Meta:      map[string]any{"requestId": r.Header.Get("X-Request-ID")},
	}
	if u, ok := userFromCtx(r.Context()); ok {
		e.User = &u
	}
	s.activity = append(s.activity, e)
}

func (s *Server) indexLocked(path, id string) int {
	for i, rec := range s.collections[path] {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Server) slugTakenLocked(path string, rec model.Record, except string) bool {
	slug, _ := rec["slug"].(string)
	if slug == "" {
		return false
	}
	for _, other := range s.collections[path] {
		if other.ID() != except && other["slug"] == slug {
			return true
		}
	}
	return false
}

func matches(rec model.Record, q, status string, filters []string, params map[string][]string) bool {
	if status != "" && fmt.Sprint(rec["status"]) != status {
		return false
	}
	for _, f := range filters {
		want := ""
		if vs := params[f]; len(vs) > 0 {
			want = vs[0]
		}
		if want != "" && fmt.Sprint(rec[f]) != want {
			return false
		}
	}
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func pageParams(pageStr, limitStr string, defLimit int) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defLimit
	}
	return page, limit
}

func bounds(n, page, limit int) (start, end, pages int) {
	pages = (n + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	start = min((page-1)*limit, n)
	end = min(start+limit, n)
	return start, end, pages
}

func paginate(recs []model.Record, page, limit int) model.Page[model.Record] {
	sort.SliceStable(recs, func(i, j int) bool {
		a, _ := recs[i]["createdAt"].(string)
		b, _ := recs[j]["createdAt"].(string)
		return a > b
	})
	start, end, pages := bounds(len(recs), page, limit)
	items := recs[start:end]
	if items == nil {
		items = []model.Record{}
	}
	return model.Page[model.Record]{Items: items, Page: page, Pages: pages}
}

func cloneRecord(rec model.Record) model.Record {
	out := make(model.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// entityID is the unescaped {id} segment. chi matches on the raw path, so
// an escaped '/' arrives still escaped.
func entityID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
