package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips diacritics and trims it, so "Línea " and "linea" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// hasFoldedPrefix reports whether text, once folded, starts with the already folded prefix
func hasFoldedPrefix(text, foldedPrefix string) bool {
	if foldedPrefix == "" {
		return false
	}
	return strings.HasPrefix(Fold(text), foldedPrefix)
}
