// Package cookies persists the access/refresh token pair between runs.
//
// It plays the role of the browser cookie jar: values are stored under fixed
// names, may carry an expiry, and disappear once expired.
package cookies

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/nullscape-admin/internal/errs"
)

// Cookie is a single named value. A zero Expires means no expiry.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// Expired reports whether the cookie is past its expiry at now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}

// Store is the cookie storage used by the API client and the session.
type Store interface {
	// Get returns the value stored under name or errs.ErrNoToken.
	Get(ctx context.Context, name string) (string, error)
	// Set stores or replaces a cookie.
	Set(ctx context.Context, c Cookie) error
	// Remove deletes a cookie; removing a missing cookie is not an error.
	Remove(ctx context.Context, name string) error
}

// Lookup returns the value under name, mapping a missing cookie to "".
func Lookup(ctx context.Context, s Store, name string) (string, error) {
	v, err := s.Get(ctx, name)
	if errors.Is(err, errs.ErrNoToken) {
		return "", nil
	}
	return v, err
}

// FromToken builds a cookie whose expiry follows the JWT exp claim.
// Tokens that are not JWTs, or carry no exp, produce a cookie without expiry.
func FromToken(name, token string) Cookie {
	c := Cookie{Name: name, Value: token}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		c.Expires = claims.ExpiresAt.Time
	}
	return c
}

// Clear removes every named cookie, returning the first error.
func Clear(ctx context.Context, s Store, names ...string) error {
	var first error
	for _, n := range names {
		if err := s.Remove(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
