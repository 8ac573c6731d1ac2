// Package catalog defines the unified area catalog: one searchable row per
// administrative or protected area across all sources, with geometry kept in a
// separate store keyed by (source, source_id).
package catalog

import (
	"fmt"
	"strings"
)

// Source identifies the upstream dataset an area was ingested from.
type Source string

const (
	SourceGADM     Source = "gadm"
	SourceKBA      Source = "kba"
	SourceLandmark Source = "landmark"
	SourceWDPA     Source = "wdpa"
)

// Sources lists every valid source in ingestion order.
var Sources = []Source{SourceGADM, SourceKBA, SourceLandmark, SourceWDPA}

// ParseSource validates a source string.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(s)) {
	case SourceGADM:
		return SourceGADM, nil
	case SourceKBA:
		return SourceKBA, nil
	case SourceLandmark:
		return SourceLandmark, nil
	case SourceWDPA:
		return SourceWDPA, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Subtype classifies a catalog entry for display and subregion filtering.
// GADM contributes one subtype per administrative level 0-5; the other
// sources each contribute exactly one.
type Subtype string

const (
	SubtypeCountry       Subtype = "country"
	SubtypeState         Subtype = "state"
	SubtypeDistrict      Subtype = "district"
	SubtypeMunicipality  Subtype = "municipality"
	SubtypeLocality      Subtype = "locality"
	SubtypeNeighbourhood Subtype = "neighbourhood"
	SubtypeKBA           Subtype = "key-biodiversity-area"
	SubtypeProtectedArea Subtype = "protected-area"
	SubtypeIndigenous    Subtype = "indigenous-and-community-land"
	SubtypeCustomArea    Subtype = "custom-area"
)

// GADMLevelSubtypes maps GADM administrative levels 0-5 to subtypes.
var GADMLevelSubtypes = [6]Subtype{
	SubtypeCountry,
	SubtypeState,
	SubtypeDistrict,
	SubtypeMunicipality,
	SubtypeLocality,
	SubtypeNeighbourhood,
}

// specificity ranks subtypes from least to most specific. Used as the search
// tie-break so a precise place name outranks a country-level match with the
// same score. Thematic area types sit between district and municipality:
// they are single sites, more specific than broad admin divisions.
var specificity = map[Subtype]int{
	SubtypeCountry:       0,
	SubtypeState:         1,
	SubtypeDistrict:      2,
	SubtypeKBA:           3,
	SubtypeProtectedArea: 3,
	SubtypeIndigenous:    3,
	SubtypeCustomArea:    3,
	SubtypeMunicipality:  4,
	SubtypeLocality:      5,
	SubtypeNeighbourhood: 6,
}

// Specificity returns the ranking weight of a subtype; higher is more
// specific. Unknown subtypes rank lowest.
func (s Subtype) Specificity() int {
	return specificity[s]
}

// ParseSubtype validates a subtype string.
func ParseSubtype(s string) (Subtype, error) {
	st := Subtype(strings.ToLower(s))
	if _, ok := specificity[st]; !ok {
		return "", fmt.Errorf("unknown subtype %q", s)
	}
	return st, nil
}

// CatalogEntry is one searchable area. It carries display and search
// attributes only; geometry lives in the store, joined by (Source, SourceID).
type CatalogEntry struct {
	// ID is process-unique for the lifetime of one catalog build. It is NOT
	// stable across ingestion runs; (Source, SourceID) is the natural key.
	ID       int64
	Source   Source
	SourceID string

	// Name is the display string: source-specific descriptive fields joined
	// with ", ", empty fields skipped. Falls back to SourceID when every
	// component is empty, never empty itself.
	Name    string
	Subtype Subtype

	// Provenance flags, redundant with Source but kept for fast filtered
	// counts. Exactly one is true per row.
	IsGADM     bool
	IsKBA      bool
	IsLandmark bool
	IsWDPA     bool
}

// Key returns the stable natural key joining catalog and geometry store.
func (e *CatalogEntry) Key() Key {
	return Key{Source: e.Source, SourceID: e.SourceID}
}

// Validate checks the per-row invariants: non-empty natural key and name, a
// known subtype, and provenance flags agreeing with Source.
func (e *CatalogEntry) Validate() error {
	if e.SourceID == "" {
		return fmt.Errorf("entry %d: empty source_id", e.ID)
	}
	if e.Name == "" {
		return fmt.Errorf("entry %s/%s: empty name", e.Source, e.SourceID)
	}
	if _, ok := specificity[e.Subtype]; !ok {
		return fmt.Errorf("entry %s/%s: unknown subtype %q", e.Source, e.SourceID, e.Subtype)
	}
	flags := 0
	for _, f := range []bool{e.IsGADM, e.IsKBA, e.IsLandmark, e.IsWDPA} {
		if f {
			flags++
		}
	}
	if flags != 1 {
		return fmt.Errorf("entry %s/%s: %d provenance flags set", e.Source, e.SourceID, flags)
	}
	want := map[Source]bool{
		SourceGADM:     e.IsGADM,
		SourceKBA:      e.IsKBA,
		SourceLandmark: e.IsLandmark,
		SourceWDPA:     e.IsWDPA,
	}
	if !want[e.Source] {
		return fmt.Errorf("entry %s/%s: provenance flag disagrees with source", e.Source, e.SourceID)
	}
	return nil
}

// SetProvenance sets the provenance flag matching Source and clears the rest.
func (e *CatalogEntry) SetProvenance() {
	e.IsGADM = e.Source == SourceGADM
	e.IsKBA = e.Source == SourceKBA
	e.IsLandmark = e.Source == SourceLandmark
	e.IsWDPA = e.Source == SourceWDPA
}

// Key is the (source, source_id) natural key.
type Key struct {
	Source   Source
	SourceID string
}

func (k Key) String() string {
	return string(k.Source) + "/" + k.SourceID
}

// DisplayName joins descriptive name components with ", ", skipping empty
// ones. Returns fallback when every component is empty.
func DisplayName(fallback string, components ...string) string {
	parts := make([]string, 0, len(components))
	for _, c := range components {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

// Bound is an axis-aligned bounding box in lon/lat degrees, stored alongside
// each geometry row so the spatial index can be rebuilt without decoding WKB.
type Bound struct {
	MinX, MinY, MaxX, MaxY float64
}

// GeometryRecord is one area's spatial footprint. Geometry is WKB-encoded
// multipolygon in EPSG:4326.
type GeometryRecord struct {
	// ID is process-unique, numbered independently from CatalogEntry.ID.
	ID       int64
	Source   Source
	SourceID string
	Bound    Bound
	WKB      []byte
}

// Key returns the natural key joining back to the catalog.
func (g *GeometryRecord) Key() Key {
	return Key{Source: g.Source, SourceID: g.SourceID}
}
