package catalog

import (
	"fmt"
	"time"
)

// BuildInfo describes one catalog build. Written by the ingestion pipeline
// into the build manifest and carried by every snapshot loaded from it.
type BuildInfo struct {
	// BuildID is a fresh UUID per ingestion run.
	BuildID string `msgpack:"build_id"`

	// CreatedAt is the build completion time.
	CreatedAt time.Time `msgpack:"created_at"`

	// Entries is the total catalog row count.
	Entries int64 `msgpack:"entries"`

	// Dropped counts records rejected per source during ingestion
	// (unparseable or missing geometry). Drops are a data-quality signal,
	// never a build failure.
	Dropped map[Source]int64 `msgpack:"dropped"`
}

// Snapshot is an immutable view of one catalog build. All query operations
// run against a snapshot; a rebuild produces a new snapshot and the active
// reference is swapped, so concurrent readers never observe a half-written
// catalog and need no locking.
type Snapshot struct {
	info    BuildInfo
	entries []CatalogEntry
	byKey   map[Key]int32
}

// NewSnapshot builds a snapshot over entries. Entries must already carry
// their build-assigned ids; the slice is owned by the snapshot afterwards.
// Duplicate (source, source_id) keys are rejected: the natural key joins the
// geometry store and must be unique.
func NewSnapshot(info BuildInfo, entries []CatalogEntry) (*Snapshot, error) {
	byKey := make(map[Key]int32, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, err
		}
		k := entries[i].Key()
		if _, dup := byKey[k]; dup {
			return nil, fmt.Errorf("duplicate catalog key %s", k)
		}
		byKey[k] = int32(i)
	}
	return &Snapshot{info: info, entries: entries, byKey: byKey}, nil
}

// Info returns the build metadata.
func (s *Snapshot) Info() BuildInfo {
	return s.info
}

// Len returns the number of catalog entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entry returns the entry at position i. The snapshot keeps build order, so
// positions are stable and dense; they are used as row handles by the search
// and spatial indexes.
func (s *Snapshot) Entry(i int32) *CatalogEntry {
	return &s.entries[i]
}

// Lookup finds an entry by its natural key.
func (s *Snapshot) Lookup(k Key) (*CatalogEntry, bool) {
	i, ok := s.byKey[k]
	if !ok {
		return nil, false
	}
	return &s.entries[i], true
}

// CountBySource returns per-source row counts from the provenance flags.
func (s *Snapshot) CountBySource() map[Source]int64 {
	counts := make(map[Source]int64, len(Sources))
	for i := range s.entries {
		counts[s.entries[i].Source]++
	}
	return counts
}
