// Package validate holds the client-side checks run before a form is submitted.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/nullscape-admin/internal/errs"
)

// FieldError reports a rejected field. It matches errs.ErrValidation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// ServerMessage lets the message reach toasts the same way server errors do.
func (e *FieldError) ServerMessage() string { return e.Message }

func (e *FieldError) Unwrap() error { return errs.ErrValidation }

// Errors collects field errors in the order they were found.
type Errors []*FieldError

// Err returns nil when empty, otherwise an error joining every field error.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	errsList := make([]error, len(es))
	for i, e := range es {
		errsList[i] = e
	}
	return errors.Join(errsList...)
}

// Required checks that value is not blank.
func Required(field, label, value string) *FieldError {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: label + " is required"}
	}
	return nil
}

// ParseSections parses the free-form sections editor of a CMS page. The text
// must be a JSON array.
func ParseSections(text string) ([]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &FieldError{Field: "sections", Message: "Invalid JSON in sections"}
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &FieldError{Field: "sections", Message: "Invalid JSON in sections"}
	}
	return arr, nil
}

// FormatSections renders sections for editing, two-space indented.
// A nil value renders as an empty array.
func FormatSections(sections any) (string, error) {
	if sections == nil {
		sections = []any{}
	}
	b, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format sections: %w", err)
	}
	return string(b), nil
}

// PricingFeatures drops blank feature lines, keeping the rest as typed.
func PricingFeatures(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}
