package ingest

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// geoPackage is a minimal read-only GeoPackage accessor: enough of the spec
// to stream GADM's feature layers. A GeoPackage is a SQLite file whose
// feature tables wrap WKB geometries in a small GPB header.
type geoPackage struct {
	db *sql.DB
}

func openGeoPackage(path string) (*geoPackage, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open geopackage: %w", err)
	}
	return &geoPackage{db: db}, nil
}

func (g *geoPackage) Close() error {
	return g.db.Close()
}

// layerInfo returns the geometry column and declared SRS of a feature layer.
func (g *geoPackage) layerInfo(table string) (geomColumn string, srsID int, err error) {
	err = g.db.QueryRow(
		`SELECT column_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?`,
		table).Scan(&geomColumn, &srsID)
	if err == sql.ErrNoRows {
		return "", 0, fmt.Errorf("layer %q not registered in gpkg_geometry_columns", table)
	}
	if err != nil {
		return "", 0, fmt.Errorf("read layer info for %q: %w", table, err)
	}
	return geomColumn, srsID, nil
}

// hasLayer reports whether a feature layer exists.
func (g *geoPackage) hasLayer(table string) (bool, error) {
	var n int
	err := g.db.QueryRow(
		`SELECT COUNT(*) FROM gpkg_contents WHERE table_name = ? AND data_type = 'features'`,
		table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read gpkg_contents: %w", err)
	}
	return n > 0, nil
}

// gpbFlags layout: bit 0 is the header byte order, bits 1-3 the envelope
// contents indicator, bit 4 the empty-geometry flag.
var envelopeSizes = [...]int{0, 32, 48, 48, 64}

// parseGPB strips the GeoPackage binary header and decodes the wrapped WKB.
func parseGPB(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 {
		return nil, fmt.Errorf("gpb header truncated: %d bytes", len(blob))
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("bad gpb magic %q", blob[:2])
	}
	flags := blob[3]
	if flags&(1<<5) != 0 {
		return nil, fmt.Errorf("extended gpb geometry not supported")
	}
	if flags&(1<<4) != 0 {
		return nil, fmt.Errorf("empty geometry")
	}
	envCode := int(flags>>1) & 0x7
	if envCode >= len(envelopeSizes) {
		return nil, fmt.Errorf("invalid gpb envelope indicator %d", envCode)
	}
	offset := 8 + envelopeSizes[envCode]
	if len(blob) <= offset {
		return nil, fmt.Errorf("gpb envelope truncated")
	}
	return wkb.Unmarshal(blob[offset:])
}
