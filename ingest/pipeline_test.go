package ingest

import (
	"context"
	"testing"

	"github.com/paulmach/orb"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/store"
)

// fakeAdapter emits a fixed record list with an optional number of drops.
type fakeAdapter struct {
	source  catalog.Source
	records []Record
	dropped int64
	err     error
}

func (f *fakeAdapter) Source() catalog.Source { return f.source }

func (f *fakeAdapter) Read(ctx context.Context, emit EmitFunc) (Stats, error) {
	if f.err != nil {
		return Stats{}, f.err
	}
	stats := Stats{Read: int64(len(f.records)) + f.dropped, Dropped: f.dropped}
	for _, r := range f.records {
		if err := emit(r); err != nil {
			return stats, err
		}
		stats.Emitted++
	}
	return stats, nil
}

func poly(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	adapters := []Adapter{
		&fakeAdapter{
			source: catalog.SourceGADM,
			records: []Record{
				{SourceID: "BRA", Name: "Brazil", Subtype: catalog.SubtypeCountry, Geometry: poly(0, 0, 10, 10)},
				{SourceID: "BRA.1_1", Name: "Acre, Brazil", Subtype: catalog.SubtypeState, Geometry: poly(1, 1, 3, 3)},
			},
		},
		&fakeAdapter{
			source:  catalog.SourceWDPA,
			dropped: 2,
			records: []Record{
				{SourceID: "90210", Name: "Reserva, BRA", Subtype: catalog.SubtypeProtectedArea, Geometry: poly(5, 5, 6, 6)},
			},
		},
	}

	p := NewPipeline(dir, adapters, nil)
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Info.Entries != 3 {
		t.Errorf("entries = %d, want 3", result.Info.Entries)
	}
	if result.Info.Dropped[catalog.SourceWDPA] != 2 {
		t.Errorf("dropped = %v", result.Info.Dropped)
	}
	if result.Info.BuildID == "" {
		t.Error("build id missing")
	}

	// The committed generation must open and agree with the result.
	db, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if db.Generation() != result.Generation {
		t.Errorf("CURRENT points at %q, want %q", db.Generation(), result.Generation)
	}

	entries := db.Entries()
	if len(entries) != 3 {
		t.Fatalf("loaded %d entries", len(entries))
	}
	// Sequential ids in concatenation order, sources in adapter order.
	for i, e := range entries {
		if e.ID != int64(i+1) {
			t.Errorf("entry %d has id %d", i, e.ID)
		}
	}
	if entries[0].Source != catalog.SourceGADM || entries[2].Source != catalog.SourceWDPA {
		t.Errorf("unexpected assembly order: %v, %v", entries[0].Source, entries[2].Source)
	}

	// Every catalog row must have its geometry (completeness invariant).
	for _, e := range entries {
		if _, err := db.GetGeometry(context.Background(), e.Key()); err != nil {
			t.Errorf("entry %s missing geometry: %v", e.Key(), err)
		}
	}
}

func TestPipelineDropsBadGeometry(t *testing.T) {
	dir := t.TempDir()
	adapters := []Adapter{
		&fakeAdapter{
			source: catalog.SourceKBA,
			records: []Record{
				{SourceID: "1", Name: "Good", Subtype: catalog.SubtypeKBA, Geometry: poly(0, 0, 1, 1)},
				{SourceID: "2", Name: "Bad", Subtype: catalog.SubtypeKBA, Geometry: orb.LineString{{0, 0}, {1, 1}}},
				{SourceID: "3", Name: "Nil", Subtype: catalog.SubtypeKBA, Geometry: nil},
			},
		},
	}

	result, err := NewPipeline(dir, adapters, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Info.Entries != 1 {
		t.Errorf("entries = %d, want 1", result.Info.Entries)
	}
	if result.Info.Dropped[catalog.SourceKBA] != 2 {
		t.Errorf("dropped = %v, want 2", result.Info.Dropped)
	}
}

func TestPipelineSourceFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	adapters := []Adapter{
		&fakeAdapter{source: catalog.SourceKBA, err: context.DeadlineExceeded},
	}
	if _, err := NewPipeline(dir, adapters, nil).Run(context.Background()); err == nil {
		t.Error("unreadable source should fail the run")
	}
}

func TestPipelineNoSources(t *testing.T) {
	if _, err := NewPipeline(t.TempDir(), nil, nil).Run(context.Background()); err == nil {
		t.Error("empty adapter list should fail")
	}
}

func TestNormalizeRecordNameFallback(t *testing.T) {
	n, err := normalizeRecord(catalog.SourceKBA, Record{
		SourceID: "12345",
		Name:     "",
		Subtype:  catalog.SubtypeKBA,
		Geometry: poly(0, 0, 1, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n.entry.Name != "12345" {
		t.Errorf("name = %q, want source id fallback", n.entry.Name)
	}
	if err := n.entry.Validate(); err != nil {
		t.Error(err)
	}
}

func TestNormalizeRecordPolygonBecomesMultiPolygon(t *testing.T) {
	n, err := normalizeRecord(catalog.SourceGADM, Record{
		SourceID: "X",
		Name:     "X",
		Subtype:  catalog.SubtypeCountry,
		Geometry: poly(0, 0, 2, 2),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n.geom.Bound.MaxX != 2 || n.geom.Bound.MaxY != 2 {
		t.Errorf("bound = %+v", n.geom.Bound)
	}
	if len(n.geom.WKB) == 0 {
		t.Error("wkb missing")
	}
}
