package testutil

import "testing"

func TestStripAnsiCodes(t *testing.T) {
	t.Parallel()
	in := "\x1b[1mR\x1b[0m = \x1b[38;5;141m4.0%\x1b[0m"
	if got := StripAnsiCodes(in); got != "R = 4.0%" {
		t.Errorf("StripAnsiCodes = %q", got)
	}
}

func TestMissingSubstrings(t *testing.T) {
	t.Parallel()
	got := MissingSubstrings("\x1b[32mGrid\x1b[0m: 2 x 3", "Grid: 2", "x 3", "points")
	if len(got) != 1 || got[0] != "points" {
		t.Errorf("MissingSubstrings = %v, want [points]", got)
	}
}
