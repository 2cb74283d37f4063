package util

import (
	"strings"
	"unicode"
)

// SanitizeText prepares note text for storage. Postgres text columns reject
// NUL, and PDF extraction tends to leave control bytes, soft hyphens, CRLF
// line endings and long runs of blank lines behind.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	newlines := 0
	for _, ch := range s {
		switch {
		case ch == '\n':
			newlines++
			if newlines > 2 {
				continue
			}
		case ch == '\t':
			newlines = 0
		case ch == '\u00ad', ch == '\ufeff':
			continue
		case unicode.IsControl(ch):
			continue
		default:
			newlines = 0
		}
		b.WriteRune(ch)
	}
	return strings.TrimSpace(b.String())
}
