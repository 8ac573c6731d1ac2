package catalog

import (
	"testing"
	"time"
)

func testEntries() []CatalogEntry {
	entries := []CatalogEntry{
		{ID: 1, Source: SourceGADM, SourceID: "PRT", Name: "Portugal", Subtype: SubtypeCountry},
		{ID: 2, Source: SourceGADM, SourceID: "PRT.12_1", Name: "Lisboa, Portugal", Subtype: SubtypeState},
		{ID: 3, Source: SourceWDPA, SourceID: "555577", Name: "Lisbon, Lisboa, PRT", Subtype: SubtypeProtectedArea},
		{ID: 4, Source: SourceKBA, SourceID: "8421", Name: "Tejo Estuary, PRT", Subtype: SubtypeKBA},
	}
	for i := range entries {
		entries[i].SetProvenance()
	}
	return entries
}

func TestNewSnapshot(t *testing.T) {
	info := BuildInfo{BuildID: "test", CreatedAt: time.Now(), Entries: 4}
	snap, err := NewSnapshot(info, testEntries())
	if err != nil {
		t.Fatalf("NewSnapshot() error: %v", err)
	}

	if snap.Len() != 4 {
		t.Errorf("Len() = %d, want 4", snap.Len())
	}

	e, ok := snap.Lookup(Key{Source: SourceWDPA, SourceID: "555577"})
	if !ok {
		t.Fatal("Lookup() missed existing key")
	}
	if e.Name != "Lisbon, Lisboa, PRT" {
		t.Errorf("Lookup() name = %q", e.Name)
	}

	if _, ok := snap.Lookup(Key{Source: SourceWDPA, SourceID: "0"}); ok {
		t.Error("Lookup() found nonexistent key")
	}
}

func TestNewSnapshotRejectsDuplicateKey(t *testing.T) {
	entries := testEntries()
	dup := entries[0]
	dup.ID = 99
	entries = append(entries, dup)

	if _, err := NewSnapshot(BuildInfo{}, entries); err == nil {
		t.Error("NewSnapshot() accepted duplicate (source, source_id)")
	}
}

func TestNewSnapshotRejectsInvalidEntry(t *testing.T) {
	entries := testEntries()
	entries[2].IsWDPA = false

	if _, err := NewSnapshot(BuildInfo{}, entries); err == nil {
		t.Error("NewSnapshot() accepted entry with broken provenance")
	}
}

func TestCountBySource(t *testing.T) {
	snap, err := NewSnapshot(BuildInfo{}, testEntries())
	if err != nil {
		t.Fatal(err)
	}
	counts := snap.CountBySource()
	if counts[SourceGADM] != 2 || counts[SourceWDPA] != 1 || counts[SourceKBA] != 1 {
		t.Errorf("CountBySource() = %v", counts)
	}
}
