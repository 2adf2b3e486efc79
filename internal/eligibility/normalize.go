package eligibility

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize lower-cases s, strips diacritics, reads "&" as "and" and collapses
// every run of non alphanumeric characters into a single space.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// A fresh chain per call: transform.Chain is stateful and not safe for
	// concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = strings.ReplaceAll(strings.ToLower(s), "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// compact drops the spaces of an already normalised value so "b tech" and
// "btech" compare equal.
func compact(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "")
}
