package assess

import (
	"strings"
	"unicode"
)

// NormalizeText returns the comparison key used to detect duplicate
// recommendations and issues: lowercase, punctuation and symbols folded to
// spaces, runs of whitespace collapsed, trimmed.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true // suppress leading space
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			space = false
		case r == '%':
			// keep percentages distinct from bare numbers
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}
