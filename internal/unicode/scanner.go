// Package unicode finds characters in a command line that a reviewer would
// not see on screen.
package unicode

import (
	"fmt"
	"unicode/utf8"
)

type Kind string

const (
	KindInvalidUTF8 Kind = "invalid-utf8"
	KindZeroWidth   Kind = "zero-width"
	KindBidi        Kind = "bidi-control"
	KindTag         Kind = "tag-char"
	KindControl     Kind = "control-char"
)

// Finding is one hidden character and its byte offset.
type Finding struct {
	Kind      Kind
	Codepoint string
	Offset    int
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s at byte %d", f.Kind, f.Codepoint, f.Offset)
}

// Hidden returns every hidden character in s, in order. Tab, newline and
// carriage return are allowed.
func Hidden(s string) []Finding {
	var findings []Finding
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			findings = append(findings, Finding{Kind: KindInvalidUTF8, Codepoint: fmt.Sprintf("0x%02X", s[i]), Offset: i})
			i++
			continue
		}
		if kind, ok := classify(r); ok {
			findings = append(findings, Finding{Kind: kind, Codepoint: fmt.Sprintf("U+%04X", r), Offset: i})
		}
		i += size
	}
	return findings
}

func classify(r rune) (Kind, bool) {
	switch {
	case isZeroWidth(r):
		return KindZeroWidth, true
	case isBidi(r):
		return KindBidi, true
	case r >= 0xE0001 && r <= 0xE007F:
		return KindTag, true
	case isControl(r):
		return KindControl, true
	}
	return "", false
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u200E', '\u200F', '\u2060', '\u180E', '\uFEFF':
		return true
	}
	return false
}

func isBidi(r rune) bool {
	return (r >= '\u202A' && r <= '\u202E') || (r >= '\u2066' && r <= '\u2069')
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r <= 0x1F || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}
