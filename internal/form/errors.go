package form

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// FieldError describes one missing or malformed form field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError is returned when a submitted form cannot be turned into a typed request.
// It carries every offending field, not just the first.
type ValidationError struct {
	Form   string
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("invalid %s form: %s", e.Form, strings.Join(parts, "; "))
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// newValidationError converts an accumulated multierr chain into a *ValidationError.
// It returns nil when err is nil.
func newValidationError(form string, err error) error {
	if err == nil {
		return nil
	}
	ve := &ValidationError{Form: form}
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			ve.Fields = append(ve.Fields, fe)
			continue
		}
		ve.Fields = append(ve.Fields, &FieldError{Field: "?", Reason: e.Error()})
	}
	return ve
}
