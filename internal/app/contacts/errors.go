package contacts

import (
	"sort"
	"strings"
)

// Field names used as ValidationError keys; they match the JSON field names.
const (
	FieldName  = "name"
	FieldEmail = "email"
)

// ValidationError is returned before any network call when input fails the
// client-side checks. Fields maps a field name to a message that can be shown
// next to that input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, or "" when that field is valid.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}
