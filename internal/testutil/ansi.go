// Package testutil holds helpers shared by the terminal output tests.
package testutil

import (
	"regexp"
	"strings"
)

// ansiRegex matches CSI escape sequences (ESC [ ... letter), which covers
// every color and style code the themes emit.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape codes from s so output can be compared
// regardless of the active theme.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// MissingSubstrings returns the entries of want that do not occur in the
// color-stripped form of s.
func MissingSubstrings(s string, want ...string) []string {
	plain := StripAnsiCodes(s)
	var missing []string
	for _, w := range want {
		if !strings.Contains(plain, w) {
			missing = append(missing, w)
		}
	}
	return missing
}
