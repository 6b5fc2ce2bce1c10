// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, expired or rejected access token (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the current user lacks the role for the operation (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a unique constraint or state conflict on the server (HTTP 409).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates input rejected before or by the server (HTTP 400/422).
	ErrValidation = errors.New("validation failed")

	// ErrNoToken indicates cookie storage holds no value under the requested name.
	ErrNoToken = errors.New("no token")
)
