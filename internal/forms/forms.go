// Package forms validates dashboard form input before anything is sent to
// the backend.
package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the type a field value must parse as.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindDecimal
	KindDate
	KindTimestamp
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
)

var timestampInputs = []string{
	timestampLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ValidationError reports one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// Errors is every ValidationError from one Validate call, in rule order.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Message
	}
	return strings.Join(parts, "; ")
}

// Field returns the error for key, if any.
func (e Errors) Field(key string) (ValidationError, bool) {
	for _, v := range e {
		if v.Field == key {
			return v, true
		}
	}
	return ValidationError{}, false
}

// Rule describes one field.
type Rule struct {
	Key      string
	Label    string
	Kind     Kind
	required bool
	min      *decimal.Decimal
	max      *decimal.Decimal
}

func newRule(key, label string, kind Kind) *Rule {
	if label == "" {
		label = key
	}
	return &Rule{Key: key, Label: label, Kind: kind}
}

// Text is a free-form string field.
func Text(key, label string) *Rule { return newRule(key, label, KindText) }

// Int is a whole-number field.
func Int(key, label string) *Rule { return newRule(key, label, KindInt) }

// Decimal is a field holding an arbitrary-precision number.
func Decimal(key, label string) *Rule { return newRule(key, label, KindDecimal) }

// Date is a YYYY-MM-DD field.
func Date(key, label string) *Rule { return newRule(key, label, KindDate) }

// Timestamp is a YYYY-MM-DDTHH:MM[:SS] field.
func Timestamp(key, label string) *Rule { return newRule(key, label, KindTimestamp) }

// Required rejects blank values.
func (r *Rule) Required() *Rule {
	r.required = true
	return r
}

// Min sets an inclusive lower bound for numeric fields.
func (r *Rule) Min(v int64) *Rule {
	d := decimal.NewFromInt(v)
	r.min = &d
	return r
}

// Max sets an inclusive upper bound for numeric fields.
func (r *Rule) Max(v int64) *Rule {
	d := decimal.NewFromInt(v)
	r.max = &d
	return r
}

// IsRequired reports whether the rule rejects blank values.
func (r *Rule) IsRequired() bool { return r.required }

// Values maps field keys to raw input.
type Values map[string]string

// Result holds validated, normalised values.
type Result struct {
	text     map[string]string
	ints     map[string]int
	decimals map[string]decimal.Decimal
}

// Has reports whether key was supplied.
func (r Result) Has(key string) bool {
	_, ok := r.text[key]
	return ok
}

// String returns the trimmed (and for dates, normalised) value of key.
func (r Result) String(key string) string { return r.text[key] }

// Int returns the parsed whole number for key, or 0 when absent.
func (r Result) Int(key string) int { return r.ints[key] }

// IntPtr returns nil when key was left blank.
func (r Result) IntPtr(key string) *int {
	v, ok := r.ints[key]
	if !ok {
		return nil
	}
	return &v
}

// Decimal returns the parsed number for key, or zero when absent.
func (r Result) Decimal(key string) decimal.Decimal { return r.decimals[key] }

// Float returns the parsed number for key as float64.
func (r Result) Float(key string) float64 {
	f, _ := r.decimals[key].Float64()
	return f
}

// Validate checks values against rules. Blank optional fields are skipped.
// On failure the error is Errors and the Result is partial.
func Validate(rules []*Rule, values Values) (Result, error) {
	res := Result{
		text:     make(map[string]string),
		ints:     make(map[string]int),
		decimals: make(map[string]decimal.Decimal),
	}
	var errs Errors
	for _, rule := range rules {
		raw := strings.TrimSpace(values[rule.Key])
		if raw == "" {
			if rule.required {
				errs = append(errs, ValidationError{Field: rule.Key, Message: rule.Label + " is required"})
			}
			continue
		}
		if verr := rule.check(raw, &res); verr != nil {
			errs = append(errs, *verr)
		}
	}
	if len(errs) > 0 {
		return res, errs
	}
	return res, nil
}

func (r *Rule) check(raw string, res *Result) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Field: r.Key, Message: r.Label + " " + fmt.Sprintf(format, args...)}
	}
	switch r.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fail("must be a whole number")
		}
		if verr := r.bounds(decimal.NewFromInt(int64(n)), fail); verr != nil {
			return verr
		}
		res.ints[r.Key] = n
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fail("must be a number")
		}
		if verr := r.bounds(d, fail); verr != nil {
			return verr
		}
		res.decimals[r.Key] = d
	case KindDate:
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return fail("must be a date (YYYY-MM-DD)")
		}
		raw = t.Format(dateLayout)
	case KindTimestamp:
		ts, ok := parseTimestamp(raw)
		if !ok {
			return fail("must be a timestamp (YYYY-MM-DDTHH:MM:SS)")
		}
		raw = ts.Format(timestampLayout)
	}
	res.text[r.Key] = raw
	return nil
}

func (r *Rule) bounds(v decimal.Decimal, fail func(string, ...any) *ValidationError) *ValidationError {
	if r.min != nil && v.LessThan(*r.min) {
		return fail("must be at least %s", r.min.String())
	}
	if r.max != nil && v.GreaterThan(*r.max) {
		return fail("must be at most %s", r.max.String())
	}
	return nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampInputs {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
