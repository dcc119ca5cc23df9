// Package strings holds text helpers for log, status and table output.
package strings

import (
	"strings"
)

// MinTruncateLen is the smallest maxLen Truncate honours: one character
// plus "...".
const MinTruncateLen = 4

// SingleLine collapses every run of whitespace, newlines included, into a
// single space and trims both ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s on a single line, cut to at most maxLen runes with a
// trailing "..." when it was longer. maxLen below MinTruncateLen is raised
// to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = SingleLine(s)

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
