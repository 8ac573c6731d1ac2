package search

import (
	"github.com/project-zeno/aoi-go/catalog"
)

// Index is the inverted trigram index over one catalog snapshot, the
// in-process analogue of a pg_trgm GIN index: each trigram maps to the
// positions of the catalog rows whose normalized name contains it.
// Immutable after Build; safe for concurrent readers.
type Index struct {
	snap *catalog.Snapshot

	// normNames[i] is the normalized name of snapshot entry i.
	normNames []string

	// gramCounts[i] is the trigram-set size of normNames[i], needed to turn
	// shared-trigram counts into Jaccard scores without re-deriving sets.
	gramCounts []int32

	postings map[string][]int32
}

// Build constructs the index for a snapshot. Cost is linear in total name
// length; run once per catalog build, at snapshot load.
func Build(snap *catalog.Snapshot) *Index {
	n := snap.Len()
	idx := &Index{
		snap:       snap,
		normNames:  make([]string, n),
		gramCounts: make([]int32, n),
		postings:   make(map[string][]int32),
	}
	for i := int32(0); i < int32(n); i++ {
		name := Normalize(snap.Entry(i).Name)
		idx.normNames[i] = name
		grams := Trigrams(name)
		idx.gramCounts[i] = int32(len(grams))
		for _, g := range grams {
			idx.postings[g] = append(idx.postings[g], i)
		}
	}
	return idx
}

// Snapshot returns the snapshot the index was built over.
func (idx *Index) Snapshot() *catalog.Snapshot {
	return idx.snap
}

// sharedCounts returns, for every row sharing at least one trigram with the
// query, the number of shared trigrams.
func (idx *Index) sharedCounts(queryGrams []string) map[int32]int32 {
	shared := make(map[int32]int32)
	for _, g := range queryGrams {
		for _, row := range idx.postings[g] {
			shared[row]++
		}
	}
	return shared
}
