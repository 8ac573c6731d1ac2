// Package ingest rebuilds the catalog and geometry store from the four raw
// sources. Each source has an adapter normalizing its schema into the common
// record shape; the pipeline runs adapters independently, concatenates their
// outputs in fixed source order, assigns fresh sequential ids, and commits a
// new store generation.
package ingest

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/spatial"
)

// Record is one normalized source record before id assignment: the catalog
// attributes plus the source geometry.
type Record struct {
	SourceID string
	Name     string
	Subtype  catalog.Subtype

	// Geometry is polygon or multipolygon in EPSG:4326 lon/lat.
	Geometry orb.Geometry
}

// Stats counts one adapter run. Dropped records are a per-record defect
// (unparseable or missing geometry), logged and counted but never fatal.
type Stats struct {
	Read    int64
	Emitted int64
	Dropped int64
}

// EmitFunc receives normalized records from an adapter. A non-nil return
// aborts the adapter run.
type EmitFunc func(Record) error

// Adapter transforms one raw source dataset into the common record shape.
// Implementations are independent; the pipeline may run them concurrently.
type Adapter interface {
	// Source identifies the dataset the adapter reads.
	Source() catalog.Source

	// Read streams normalized records to emit. Per-record defects are
	// counted in the returned stats, not returned as errors; errors mean
	// the source itself could not be read.
	Read(ctx context.Context, emit EmitFunc) (Stats, error)
}

// normalized couples a finished catalog entry with its geometry record,
// both still without build ids.
type normalized struct {
	entry catalog.CatalogEntry
	geom  catalog.GeometryRecord
}

// normalizeRecord turns an adapter record into a catalog entry + geometry
// record pair: multipolygon type normalization, WKB encoding, bound
// derivation, name fallback, provenance flags.
func normalizeRecord(src catalog.Source, r Record) (normalized, error) {
	if r.SourceID == "" {
		return normalized{}, fmt.Errorf("record without source id")
	}

	mp, err := spatial.ToMultiPolygon(r.Geometry)
	if err != nil {
		return normalized{}, fmt.Errorf("record %s: %w", r.SourceID, err)
	}
	raw, err := wkb.Marshal(mp)
	if err != nil {
		return normalized{}, fmt.Errorf("record %s: encode geometry: %w", r.SourceID, err)
	}

	name := r.Name
	if name == "" {
		// A naming defect alone never drops a record.
		name = r.SourceID
	}

	entry := catalog.CatalogEntry{
		Source:   src,
		SourceID: r.SourceID,
		Name:     name,
		Subtype:  r.Subtype,
	}
	entry.SetProvenance()

	return normalized{
		entry: entry,
		geom: catalog.GeometryRecord{
			Source:   src,
			SourceID: r.SourceID,
			Bound:    spatial.BoundOf(mp),
			WKB:      raw,
		},
	}, nil
}
