// Package model defines domain entities shared by the client components.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Cookie names used for the persisted token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Tokens is the access/refresh pair returned by the backend on login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the authenticated account as reported by /auth/me.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *User) HasAnyRole(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range u.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Page is the envelope returned by every list endpoint.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// Record is a loosely typed CMS entity. The backend keys entities by "_id".
type Record map[string]any

// ID returns the record identifier or "" when absent.
func (r Record) ID() string {
	if v, ok := r["_id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	if v, ok := r["id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Field renders a single column value for display; missing values render as "-".
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return "-"
	}
	switch x := v.(type) {
	case string:
		if x == "" {
			return "-"
		}
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

// UploadedFile describes one stored media file.
type UploadedFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// CMSSection is one keyed block of a CMS page.
type CMSSection struct {
	Key     string `json:"key"`
	Content any    `json:"content"`
}

// CMSPage is a CMS-managed page with ordered sections.
type CMSPage struct {
	ID       string       `json:"_id,omitempty"`
	Page     string       `json:"page"`
	Sections []CMSSection `json:"sections"`
}

// ActivityLog is a server-side audit entry listed on the activity screen.
type ActivityLog struct {
	ID        string         `json:"_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entityId,omitempty"`
	User      *User          `json:"user,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Summary is the dashboard overview from /analytics/summary.
type Summary struct {
	TotalServices   int      `json:"totalServices"`
	TotalBlogPosts  int      `json:"totalBlogPosts"`
	TotalProjects   int      `json:"totalProjects"`
	EnquiriesToday  int      `json:"enquiriesToday"`
	LatestInquiries []Record `json:"latestInquiries"`
}

// JournalEntry is one settled mutation recorded in the local journal.
type JournalEntry struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Seq        int64     `json:"seq"`
	OK         bool      `json:"ok"`
	Message    string    `json:"message,omitempty"`
	Superseded bool      `json:"superseded,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Duration is how long the mutation ran.
func (e JournalEntry) Duration() time.Duration { return e.FinishedAt.Sub(e.StartedAt) }
