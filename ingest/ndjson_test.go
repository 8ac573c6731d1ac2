package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/project-zeno/aoi-go/catalog"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.ndjson")
	data := ""
	for _, l := range lines {
		data += l + "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const squareGeom = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`

func TestKBAAdapter(t *testing.T) {
	path := writeLines(t,
		`{"type":"Feature","properties":{"SitRecID":8421,"NatName":"Estuario do Tejo","IntName":"Tagus Estuary","ISO3":"PRT"},"geometry":`+squareGeom+`}`,
		`{"type":"Feature","properties":{"SitRecID":9001,"NatName":"","IntName":"","ISO3":"BRA"},"geometry":`+squareGeom+`}`,
	)

	adapter := &KBAAdapter{Path: path}
	var records []Record
	stats, err := adapter.Read(context.Background(), func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Read != 2 || stats.Emitted != 2 || stats.Dropped != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if records[0].SourceID != "8421" {
		t.Errorf("numeric SitRecID should format as %q, got %q", "8421", records[0].SourceID)
	}
	if records[0].Name != "Estuario do Tejo, Tagus Estuary, PRT" {
		t.Errorf("name = %q", records[0].Name)
	}
	if records[0].Subtype != catalog.SubtypeKBA {
		t.Errorf("subtype = %q", records[0].Subtype)
	}

	// Empty name components fall back to the remaining one.
	if records[1].Name != "BRA" {
		t.Errorf("fallback name = %q, want %q", records[1].Name, "BRA")
	}
}

func TestWDPAAdapter(t *testing.T) {
	path := writeLines(t,
		`{"type":"Feature","properties":{"wdpa_pid":"555577","name":"Lisbon","desig":"Natural Reserve","iso3":"PRT"},"geometry":`+squareGeom+`}`,
	)

	adapter := &WDPAAdapter{Path: path}
	var records []Record
	if _, err := adapter.Read(context.Background(), func(r Record) error {
		records = append(records, r)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Name != "Lisbon, Natural Reserve, PRT" {
		t.Errorf("name = %q", records[0].Name)
	}
	if records[0].Subtype != catalog.SubtypeProtectedArea {
		t.Errorf("subtype = %q", records[0].Subtype)
	}
	if records[0].Geometry == nil {
		t.Error("geometry missing")
	}
}

func TestLandmarkAdapter(t *testing.T) {
	path := writeLines(t,
		`{"type":"Feature","properties":{"landmark_id":"L100","name":"Raposa Serra do Sol","category":"Indigenous territory","iso_code":"BRA"},"geometry":`+squareGeom+`}`,
	)

	adapter := &LandmarkAdapter{Path: path}
	var records []Record
	if _, err := adapter.Read(context.Background(), func(r Record) error {
		records = append(records, r)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Name != "Raposa Serra do Sol, Indigenous territory, BRA" {
		t.Errorf("name = %q", records[0].Name)
	}
	if records[0].Subtype != catalog.SubtypeIndigenous {
		t.Errorf("subtype = %q", records[0].Subtype)
	}
}

func TestNDJSONDropPolicy(t *testing.T) {
	path := writeLines(t,
		`{"type":"Feature","properties":{"SitRecID":1,"NatName":"Good"},"geometry":`+squareGeom+`}`,
		`not json at all`,
		`{"type":"Feature","properties":{"SitRecID":2,"NatName":"No geometry"}}`,
		``,
		`{"type":"Feature","properties":{"NatName":"No id"},"geometry":`+squareGeom+`}`,
	)

	adapter := &KBAAdapter{Path: path}
	var emitted int
	stats, err := adapter.Read(context.Background(), func(r Record) error {
		emitted++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if emitted != 1 {
		t.Errorf("emitted %d records, want 1", emitted)
	}
	if stats.Read != 4 {
		t.Errorf("read = %d, want 4 (blank line skipped)", stats.Read)
	}
	if stats.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", stats.Dropped)
	}
}

func TestPropString(t *testing.T) {
	props := map[string]interface{}{
		"WDPA_PID": "abc",
		"SitRecID": float64(12345),
		"empty":    "",
	}
	if got := propString(props, "wdpa_pid"); got != "abc" {
		t.Errorf("case-insensitive lookup failed: %q", got)
	}
	if got := propString(props, "sitrecid"); got != "12345" {
		t.Errorf("numeric id formatting failed: %q", got)
	}
	if got := propString(props, "empty", "wdpa_pid"); got != "abc" {
		t.Errorf("empty value should defer to later keys: %q", got)
	}
	if got := propString(props, "missing"); got != "" {
		t.Errorf("missing key should be empty: %q", got)
	}
}
