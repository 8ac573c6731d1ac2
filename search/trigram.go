package search

import (
	"strings"
	"unicode"
)

// Trigrams extracts the trigram set of normalized text, following
// PostgreSQL's pg_trgm scheme: the text splits into alphanumeric words,
// each word is padded with two leading and one trailing space, and every
// three-rune window becomes one trigram. Set semantics; duplicates
// collapse.
func Trigrams(s string) []string {
	set := make(map[string]struct{})
	for _, word := range splitWords(s) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}

// splitWords breaks text into runs of letters and digits.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Similarity scores two normalized strings in [0, 100] as the Jaccard
// overlap of their trigram sets, scaled to match the catalog's 0-100
// threshold convention. Identical strings score 100; strings sharing no
// trigram score 0.
func Similarity(a, b string) float64 {
	return similarityFromSets(Trigrams(a), Trigrams(b))
}

func similarityFromSets(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	smaller, larger := a, b
	if len(larger) < len(smaller) {
		smaller, larger = larger, smaller
	}
	in := make(map[string]struct{}, len(smaller))
	for _, t := range smaller {
		in[t] = struct{}{}
	}
	shared := 0
	for _, t := range larger {
		if _, ok := in[t]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return 100 * float64(shared) / float64(union)
}
