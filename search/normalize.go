// Package search implements the fuzzy catalog matcher: trigram similarity
// with an inverted trigram index, plus a case-insensitive substring pass that
// bypasses the similarity threshold.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks after canonical decomposition, so
// "São Paulo" and "Sao Paulo" normalize identically. Transliterated and
// accented query forms then score against the same trigrams.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a name or query and folds diacritics. All similarity
// scoring and substring matching runs on normalized text.
func Normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Fold failures leave the input usable, just unfolded.
		folded = s
	}
	return strings.ToLower(folded)
}
