package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain decomposes to NFD, drops combining marks (Vietnamese tone and
// vowel diacritics included) and recomposes. "đ" does not decompose, so it is
// mapped separately.
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldText lowercases s and strips diacritics so that "Nguyễn" and "nguyen"
// compare equal. If the transform fails the plain lowercased string is
// returned; search must never fail over a normalization error.
func FoldText(s string) string {
	lower := strings.ToLower(s)
	folded, _, err := transform.String(foldChain, lower)
	if err != nil {
		return lower
	}
	return strings.Map(func(r rune) rune {
		if r == 'đ' {
			return 'd'
		}
		return r
	}, folded)
}
