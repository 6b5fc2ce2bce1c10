package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/and161185/nullscape-admin/internal/errs"
)

// ErrorData is the error body the backend sends with non-2xx responses.
type ErrorData struct {
	Message string `json:"message"`
}

// Error is returned for transport failures (Status 0) and non-2xx responses.
type Error struct {
	Status int
	Data   ErrorData
	Body   []byte
	Err    error
}

// Error prefers the server message, then a generic description.
func (e *Error) Error() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	if e.Status == 0 {
		if e.Err != nil {
			return "Network Error: " + e.Err.Error()
		}
		return "Network Error"
	}
	return fmt.Sprintf("Request failed with status code %d", e.Status)
}

// ServerMessage returns the backend-supplied message, or "" when there is none.
func (e *Error) ServerMessage() string { return e.Data.Message }

// Unwrap exposes the status sentinel and the transport cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var out []error
	if s := statusSentinel(e.Status); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func statusSentinel(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errs.ErrValidation
	case http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case http.StatusForbidden:
		return errs.ErrForbidden
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusConflict:
		return errs.ErrConflict
	default:
		return nil
	}
}

func newHTTPError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: body}
	_ = json.Unmarshal(body, &e.Data)
	return e
}
