package textstream

import (
	"fmt"
	"strings"
)

// Newline specifies a line terminator style.
type Newline uint8

const (
	NewlineLF   Newline = iota // Unix: \n
	NewlineCR                  // Old Mac: \r
	NewlineCRLF                // Windows: \r\n
)

// String returns the name used in configuration: "lf", "cr" or "crlf".
func (n Newline) String() string {
	switch n {
	case NewlineCR:
		return "cr"
	case NewlineCRLF:
		return "crlf"
	default:
		return "lf"
	}
}

// Sequence returns the terminator bytes.
func (n Newline) Sequence() string {
	switch n {
	case NewlineCR:
		return "\r"
	case NewlineCRLF:
		return "\r\n"
	default:
		return "\n"
	}
}

// ParseNewline parses "lf", "cr" or "crlf", case-insensitively.
func ParseNewline(s string) (Newline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lf", "unix":
		return NewlineLF, nil
	case "cr", "mac":
		return NewlineCR, nil
	case "crlf", "dos", "windows":
		return NewlineCRLF, nil
	default:
		return NewlineLF, fmt.Errorf("invalid newline style %q", s)
	}
}

// DetectNewline returns the style of the first terminator in b. The second
// result is false when b holds no complete terminator: no terminator at all,
// or a lone '\r' at the very end that could still be followed by '\n'.
func DetectNewline(b []byte) (Newline, bool) {
	for i, c := range b {
		switch c {
		case '\n':
			return NewlineLF, true
		case '\r':
			if i+1 == len(b) {
				return NewlineLF, false
			}
			if b[i+1] == '\n' {
				return NewlineCRLF, true
			}
			return NewlineCR, true
		}
	}
	return NewlineLF, false
}
