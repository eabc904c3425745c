package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is applied to contact names before they are submitted.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePhone trims surrounding whitespace. Formatting inside the number is preserved.
func NormalizePhone(s string) string {
	return strings.TrimSpace(s)
}
