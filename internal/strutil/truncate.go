// Package strutil provides rune-safe string helpers shared by the readle packages.
package strutil

import "strings"

// Truncate truncates s to at most maxLen runes and appends "..." when it cut
// anything. Multi-byte characters are never split. Returns "" if maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Preview squeezes s onto one line, collapsing whitespace runs to a single
// space, and truncates it to maxLen runes. Used for log attributes.
func Preview(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}
