package core

// validation.go collects candidate form values and tags them valid or
// invalid by field type. The result is advisory: it drives styling and never
// blocks a submission.

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ValidateValue reports whether value satisfies the type tag.
//
// Empty input is always valid. "boolean" accepts exactly "0" or "1",
// "integer" accepts any number without a fractional part ("3", "3.0", "1e3")
// and "number" accepts any finite number. Unknown tags accept everything.
func ValidateValue(tag FieldType, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}

	switch tag {
	case FieldBoolean:
		return value == "0" || value == "1"
	case FieldInteger:
		f, ok := parseNumber(value)
		return ok && f == math.Trunc(f)
	case FieldNumber:
		_, ok := parseNumber(value)
		return ok
	default:
		return true
	}
}

// parseNumber parses a finite decimal number.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FieldCheck is the outcome of validating one submitted field.
type FieldCheck struct {
	Field string    `json:"field"`
	Value string    `json:"value"`
	Type  FieldType `json:"type"`
	Valid bool      `json:"valid"`
}

// ValidateRecord checks every field of record against the catalog. Fields
// outside the catalog are checked as numbers. Catalog fields come first in
// catalog order, extras follow sorted by name.
func ValidateRecord(record map[string]string) []FieldCheck {
	checks := make([]FieldCheck, 0, len(record))
	seen := make(map[string]bool, len(record))

	for _, spec := range KOIFields {
		v, ok := record[spec.Name]
		if !ok {
			continue
		}
		seen[spec.Name] = true
		checks = append(checks, FieldCheck{
			Field: spec.Name, Value: v, Type: spec.Type, Valid: ValidateValue(spec.Type, v),
		})
	}

	for _, name := range sortedKeys(record) {
		if seen[name] {
			continue
		}
		v := record[name]
		checks = append(checks, FieldCheck{
			Field: name, Value: v, Type: FieldNumber, Valid: ValidateValue(FieldNumber, v),
		})
	}
	return checks
}

// AllValid reports whether every check passed.
func AllValid(checks []FieldCheck) bool {
	for _, c := range checks {
		if !c.Valid {
			return false
		}
	}
	return true
}

// CollectForm builds a flat record from submitted form values. Values are
// trimmed and blank ones skipped. When allowed is non-empty, names outside
// it are ignored. For repeated names the first value wins.
func CollectForm(values url.Values, allowed []string) map[string]string {
	var allow map[string]bool
	if len(allowed) > 0 {
		allow = make(map[string]bool, len(allowed))
		for _, name := range allowed {
			allow[name] = true
		}
	}

	record := make(map[string]string)
	for name, vs := range values {
		if allow != nil && !allow[name] {
			continue
		}
		if len(vs) == 0 {
			continue
		}
		if v := strings.TrimSpace(vs[0]); v != "" {
			record[name] = v
		}
	}
	return record
}
