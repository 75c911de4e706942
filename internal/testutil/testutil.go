// Package testutil provides shared testing utilities used across the project.
package testutil

import (
	"math/big"
	"regexp"
	"testing"
)

// ansiRegex matches CSI sequences: ESC [ parameters final-letter.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape codes from a string so rendered CLI
// output can be compared verbatim.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// MustBig parses a base-10 integer literal or fails the test.
func MustBig(tb testing.TB, s string) *big.Int {
	tb.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		tb.Fatalf("invalid integer literal %q", s)
	}
	return v
}
