package search

import (
	"testing"

	"github.com/project-zeno/aoi-go/catalog"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	entries := []catalog.CatalogEntry{
		{ID: 1, Source: catalog.SourceGADM, SourceID: "USA.11_1", Name: "Georgia, United States", Subtype: catalog.SubtypeState},
		{ID: 2, Source: catalog.SourceGADM, SourceID: "GEO", Name: "Georgia", Subtype: catalog.SubtypeCountry},
		{ID: 3, Source: catalog.SourceWDPA, SourceID: "555577", Name: "Lisbon, Lisboa, PRT", Subtype: catalog.SubtypeProtectedArea},
		{ID: 4, Source: catalog.SourceGADM, SourceID: "PRT", Name: "Portugal", Subtype: catalog.SubtypeCountry},
		{ID: 5, Source: catalog.SourceGADM, SourceID: "BRA", Name: "Brazil", Subtype: catalog.SubtypeCountry},
		{ID: 6, Source: catalog.SourceKBA, SourceID: "8421", Name: "Tejo Estuary, PRT", Subtype: catalog.SubtypeKBA},
	}
	for i := range entries {
		entries[i].SetProvenance()
	}
	snap, err := catalog.NewSnapshot(catalog.BuildInfo{BuildID: "test"}, entries)
	if err != nil {
		t.Fatal(err)
	}
	return Build(snap)
}

func TestSearchSubstringHit(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("lisbon", Options{Threshold: 70, ThresholdSet: true})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Entry.SourceID != "555577" {
		t.Errorf("got %q", results[0].Entry.Name)
	}
	if !results[0].Substring {
		t.Error("expected substring hit")
	}
	if results[0].Score < 40 {
		t.Errorf("score %v unexpectedly low for close match", results[0].Score)
	}
}

func TestSearchAmbiguousReturnsAllCandidates(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("Georgia", Options{Threshold: 70, ThresholdSet: true})
	if len(results) != 2 {
		t.Fatalf("got %d results, want both Georgias", len(results))
	}

	subtypes := map[catalog.Subtype]bool{}
	for _, m := range results {
		subtypes[m.Entry.Subtype] = true
	}
	if !subtypes[catalog.SubtypeCountry] || !subtypes[catalog.SubtypeState] {
		t.Errorf("expected state and country, got %v", subtypes)
	}
}

func TestSearchExactNameRanksFirst(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("Georgia", Options{Threshold: 0, ThresholdSet: true, Limit: 100})
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Entry.SourceID != "GEO" {
		t.Errorf("exact name should rank first, got %q", results[0].Entry.Name)
	}
}

func TestSearchNoMatch(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("xyzabc123notaplace", Options{Threshold: 70, ThresholdSet: true})
	if results == nil {
		t.Fatal("results must never be nil")
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchThresholdMonotonic(t *testing.T) {
	idx := buildTestIndex(t)

	strict := idx.Search("lisbo", Options{Threshold: 70, ThresholdSet: true, Limit: 100})
	relaxed := idx.Search("lisbo", Options{Threshold: 0, ThresholdSet: true, Limit: 100})

	if len(relaxed) < len(strict) {
		t.Fatalf("relaxed threshold returned fewer results: %d < %d", len(relaxed), len(strict))
	}
	seen := map[int64]bool{}
	for _, m := range relaxed {
		seen[m.Entry.ID] = true
	}
	for _, m := range strict {
		if !seen[m.Entry.ID] {
			t.Errorf("entry %d missing from relaxed results", m.Entry.ID)
		}
	}
}

func TestSearchSubstringBypassesThreshold(t *testing.T) {
	idx := buildTestIndex(t)

	// "tejo" scores low against the full "Tejo Estuary, PRT" name but is an
	// exact substring, so it must appear even at a prohibitive threshold.
	results := idx.Search("tejo", Options{Threshold: 99, ThresholdSet: true})
	found := false
	for _, m := range results {
		if m.Entry.SourceID == "8421" {
			found = true
			if !m.Substring {
				t.Error("expected substring flag")
			}
		}
	}
	if !found {
		t.Error("substring hit excluded by threshold")
	}
}

func TestSearchSubtypeFilter(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("Georgia", Options{
		Threshold:    70,
		ThresholdSet: true,
		Subtypes:     []catalog.Subtype{catalog.SubtypeCountry},
	})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Entry.Subtype != catalog.SubtypeCountry {
		t.Errorf("got subtype %q", results[0].Entry.Subtype)
	}
}

func TestSearchLimit(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("a", Options{Threshold: 0, ThresholdSet: true, Limit: 2})
	if len(results) > 2 {
		t.Errorf("limit not applied: got %d results", len(results))
	}
}

func TestSearchAccentedQuery(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search("Lisbôn", Options{Threshold: 70, ThresholdSet: true})
	if len(results) != 1 || results[0].Entry.SourceID != "555577" {
		t.Errorf("accented query failed to match: %v", results)
	}
}

func TestSearchSpecificityTieBreak(t *testing.T) {
	entries := []catalog.CatalogEntry{
		{ID: 1, Source: catalog.SourceGADM, SourceID: "X", Name: "Santa Cruz", Subtype: catalog.SubtypeCountry},
		{ID: 2, Source: catalog.SourceGADM, SourceID: "X.1.2_1", Name: "Santa Cruz", Subtype: catalog.SubtypeMunicipality},
	}
	for i := range entries {
		entries[i].SetProvenance()
	}
	snap, err := catalog.NewSnapshot(catalog.BuildInfo{}, entries)
	if err != nil {
		t.Fatal(err)
	}
	idx := Build(snap)

	results := idx.Search("santa cruz", Options{Threshold: 70, ThresholdSet: true})
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Entry.Subtype != catalog.SubtypeMunicipality {
		t.Errorf("municipality should outrank country on equal score, got %q first", results[0].Entry.Subtype)
	}
}
