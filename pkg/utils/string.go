package utils

import "strings"

// Truncate is a simple string truncate
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// SingleLine collapses all whitespace runs (including newlines) into single
// spaces so multi-line model output fits a one-line preview.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
