package search

import (
	"sort"
	"strings"

	"github.com/project-zeno/aoi-go/catalog"
)

// DefaultThreshold is the minimum similarity score for fuzzy candidates.
const DefaultThreshold = 70

// DefaultLimit caps the result count when the caller does not set one.
const DefaultLimit = 10

// Options constrain a search. Zero values choose defaults; an explicit zero
// threshold must be requested via ThresholdSet.
type Options struct {
	// Threshold is the minimum similarity score in [0, 100]. Candidates
	// below it are excluded unless they pass the substring test.
	Threshold float64

	// ThresholdSet distinguishes an explicit Threshold of 0 (accept every
	// trigram-sharing candidate) from an unset one (DefaultThreshold).
	ThresholdSet bool

	// Subtypes restricts results to the listed subtypes. Empty means all.
	Subtypes []catalog.Subtype

	// Limit caps the result count. Zero means DefaultLimit.
	Limit int
}

// Match is one scored search result. Entry points into the snapshot the
// index was built on.
type Match struct {
	Entry *catalog.CatalogEntry

	// Score is the trigram similarity in [0, 100].
	Score float64

	// Substring reports that the query occurred literally inside the name.
	// Substring hits are included regardless of Threshold: an exact
	// containment is reliable even when the name's tail (admin hierarchy,
	// country code) drags the trigram score down.
	Substring bool
}

// Search ranks catalog entries against a free-text query. The query must be
// non-empty and Threshold within [0, 100]; the resolver validates both before
// calling. The result is never nil; no match is an empty slice.
//
// Two passes combine: a case-insensitive substring pass that always matches,
// and a trigram-similarity pass gated by the threshold. Results order by
// score descending, ties broken by subtype specificity (most specific first)
// and then catalog position for determinism.
func (idx *Index) Search(query string, opts Options) []Match {
	threshold := opts.Threshold
	if !opts.ThresholdSet {
		threshold = DefaultThreshold
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	normQuery := Normalize(query)
	queryGrams := Trigrams(normQuery)

	var allowed map[catalog.Subtype]bool
	if len(opts.Subtypes) > 0 {
		allowed = make(map[catalog.Subtype]bool, len(opts.Subtypes))
		for _, st := range opts.Subtypes {
			allowed[st] = true
		}
	}

	// Fuzzy pass over rows sharing at least one trigram with the query.
	// Rows sharing none score 0 and can only enter via the substring pass.
	scores := make(map[int32]float64)
	for row, shared := range idx.sharedCounts(queryGrams) {
		union := int32(len(queryGrams)) + idx.gramCounts[row] - shared
		scores[row] = 100 * float64(shared) / float64(union)
	}

	matches := make([]Match, 0, limit)
	for i := int32(0); i < int32(idx.snap.Len()); i++ {
		entry := idx.snap.Entry(i)
		if allowed != nil && !allowed[entry.Subtype] {
			continue
		}
		score := scores[i]
		sub := strings.Contains(idx.normNames[i], normQuery)
		if !sub && score < threshold {
			continue
		}
		matches = append(matches, Match{Entry: entry, Score: score, Substring: sub})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		sa := matches[a].Entry.Subtype.Specificity()
		sb := matches[b].Entry.Subtype.Specificity()
		if sa != sb {
			return sa > sb
		}
		return matches[a].Entry.ID < matches[b].Entry.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
