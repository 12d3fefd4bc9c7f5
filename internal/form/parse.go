// Package form turns raw form submissions into typed, validated requests.
package form

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// fields wraps url.Values and accumulates field errors while reading.
type fields struct {
	src url.Values
	err error
}

func (f *fields) fail(name, format string, args ...interface{}) {
	f.err = multierr.Append(f.err, &FieldError{Field: name, Reason: fmt.Sprintf(format, args...)})
}

func (f *fields) raw(name string) (string, bool) {
	if !f.src.Has(name) {
		return "", false
	}
	v := strings.TrimSpace(f.src.Get(name))
	return v, v != ""
}

// str reads a required non-blank string.
func (f *fields) str(name string) string {
	v, ok := f.raw(name)
	if !ok {
		f.fail(name, "is required")
	}
	return v
}

// number reads a required finite number.
func (f *fields) number(name string) float64 {
	v, ok := f.raw(name)
	if !ok {
		f.fail(name, "is required")
		return 0
	}
	n, err := parseFinite(v)
	if err != nil {
		f.fail(name, "%q is not a number", v)
		return 0
	}
	return n
}

// optionalNumber reads a finite number, treating a missing or blank field as 0.
func (f *fields) optionalNumber(name string) float64 {
	v, ok := f.raw(name)
	if !ok {
		return 0
	}
	n, err := parseFinite(v)
	if err != nil {
		f.fail(name, "%q is not a number", v)
		return 0
	}
	return n
}

// nonNegative checks a value already read by number/optionalNumber.
func (f *fields) nonNegative(name string, n float64) {
	if n < 0 {
		f.fail(name, "must not be negative, got %g", n)
	}
}

// flag reads a required 0/1 value.
func (f *fields) flag(name string) int {
	v, ok := f.raw(name)
	if !ok {
		f.fail(name, "is required")
		return 0
	}
	switch v {
	case "0":
		return 0
	case "1":
		return 1
	}
	f.fail(name, "must be 0 or 1, got %q", v)
	return 0
}

func parseFinite(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return n, nil
}

// ParseDependents maps the dependents field to an integer: "3+" is 3, any other
// non-negative integer numeral maps to itself.
func ParseDependents(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "3+" {
		return 3, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number or \"3+\"", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return n, nil
}
