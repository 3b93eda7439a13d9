// Package ansi provides ANSI escape code constants and helpers for terminal output.
// All colored/styled terminal output should reference these constants to avoid duplication.
package ansi

import (
	"io"
	"regexp"
)

// ANSI SGR (Select Graphic Rendition) codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Blue    = "\033[34m"
	Yellow  = "\033[33m"
	Green   = "\033[32m"
	Red     = "\033[31m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"
)

var escape = regexp.MustCompile("\033\\[[0-9;]*[A-Za-z]")

// Strip removes every escape sequence from s.
func Strip(s string) string {
	return escape.ReplaceAllString(s, "")
}

// PlainWriter strips escape sequences from everything written through it.
// Each Write must carry whole sequences.
type PlainWriter struct {
	W io.Writer
}

// Write implements io.Writer. It reports len(p) on success so callers see
// the bytes they handed in, not the stripped count.
func (w PlainWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.W, Strip(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
