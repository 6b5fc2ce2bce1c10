// Package apitest is an in-memory rendition of the Nullscape backend REST
// contract. Tests mount it on httptest; cmd/mockapi serves it for local work.
package apitest

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/resource"
)

// Prefix is where the API is mounted.
const Prefix = "/api/v1"

// Server is the fake backend.
type Server struct {
	log       *zap.Logger
	signKey   []byte
	accessTTL time.Duration
	now       func() time.Time
	throttle  *throttle

	mu          sync.Mutex
	accounts    map[string]*account // by email
	live        map[string]string   // access token id -> user id
	refresh     map[string]string   // refresh token -> user id
	collections map[string][]model.Record
	uploads     []model.UploadedFile
	activity    []model.ActivityLog
	refreshes   int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

// WithSignKey sets the HS256 key for access tokens.
func WithSignKey(k []byte) Option { return func(s *Server) { s.signKey = k } }

// WithAccessTTL sets the access token lifetime.
func WithAccessTTL(d time.Duration) Option { return func(s *Server) { s.accessTTL = d } }

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New returns an empty backend with no accounts.
func New(opts ...Option) *Server {
	s := &Server{
		log:         zap.NewNop(),
		signKey:     []byte("nullscape-dev-signing-key"),
		accessTTL:   15 * time.Minute,
		now:         time.Now,
		accounts:    make(map[string]*account),
		live:        make(map[string]string),
		refresh:     make(map[string]string),
		collections: make(map[string][]model.Record),
	}
	for _, o := range opts {
		o(s)
	}
	s.throttle = newThrottle(15*time.Minute, 5, 15*time.Minute, s.now)
	return s
}

// Handler returns the router with every route mounted under Prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log), logging(s.log))

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Get("/robots.txt", s.handleRobots)
		r.Get("/sitemap.xml", s.handleSitemap)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/auth/me", s.handleMe)
			r.Get("/analytics/summary", s.handleSummary)
			r.Get("/uploads", s.handleListUploads)
			r.Post("/uploads", s.handleUpload)
			r.Get("/activity", s.handleActivity)
			for _, res := range resource.All() {
				if res.Name == "activity" {
					continue
				}
				s.mountCollection(r, res)
			}
		})
	})
	return r
}

// Refreshes reports how many token refreshes succeeded.
func (s *Server) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
