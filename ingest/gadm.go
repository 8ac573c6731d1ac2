package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/project-zeno/aoi-go/catalog"
)

// epsg4326 is the only coordinate system the catalog stores. All four
// upstream sources ship in it; adapters validate rather than reproject.
const epsg4326 = 4326

// GADMAdapter reads the GADM administrative boundaries GeoPackage
// (gadm_410-levels): one layer per administrative level 0-5, each mapped to
// its own subtype. The source id is the level's GID column; the name joins
// the admin hierarchy from most specific to country.
type GADMAdapter struct {
	// Path is the GeoPackage file location.
	Path string
}

func (a *GADMAdapter) Source() catalog.Source {
	return catalog.SourceGADM
}

func (a *GADMAdapter) Read(ctx context.Context, emit EmitFunc) (Stats, error) {
	var stats Stats

	gpkg, err := openGeoPackage(a.Path)
	if err != nil {
		return stats, err
	}
	defer gpkg.Close()

	for level := 0; level <= 5; level++ {
		table := fmt.Sprintf("ADM_%d", level)
		ok, err := gpkg.hasLayer(table)
		if err != nil {
			return stats, err
		}
		if !ok {
			// GADM distributions are not guaranteed to carry every level.
			continue
		}
		if err := a.readLevel(ctx, gpkg, level, table, &stats, emit); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (a *GADMAdapter) readLevel(ctx context.Context, gpkg *geoPackage, level int, table string, stats *Stats, emit EmitFunc) error {
	geomCol, srsID, err := gpkg.layerInfo(table)
	if err != nil {
		return err
	}
	if srsID != epsg4326 {
		return fmt.Errorf("layer %s: srs %d, want EPSG:%d", table, srsID, epsg4326)
	}

	// Name components from most specific level down to the country, the
	// order the display name concatenates them in.
	idCol := fmt.Sprintf("GID_%d", level)
	nameCols := make([]string, 0, level+1)
	for l := level; l >= 1; l-- {
		nameCols = append(nameCols, fmt.Sprintf("NAME_%d", l))
	}
	nameCols = append(nameCols, "COUNTRY")

	cols := append([]string{idCol}, nameCols...)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
	}
	query := fmt.Sprintf(`SELECT %s, "%s" FROM "%s"`, strings.Join(quoted, ", "), geomCol, table)

	rows, err := gpkg.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan layer %s: %w", table, err)
	}
	defer rows.Close()

	subtype := catalog.GADMLevelSubtypes[level]
	for rows.Next() {
		stats.Read++

		dest := make([]any, len(cols)+1)
		var id sql.NullString
		dest[0] = &id
		names := make([]sql.NullString, len(nameCols))
		for i := range names {
			dest[i+1] = &names[i]
		}
		var blob []byte
		dest[len(cols)] = &blob

		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s row: %w", table, err)
		}
		if !id.Valid || id.String == "" {
			stats.Dropped++
			continue
		}
		geom, err := parseGPB(blob)
		if err != nil {
			stats.Dropped++
			continue
		}

		components := make([]string, len(names))
		for i, n := range names {
			components[i] = n.String
		}
		if err := emit(Record{
			SourceID: id.String,
			Name:     catalog.DisplayName(id.String, components...),
			Subtype:  subtype,
			Geometry: geom,
		}); err != nil {
			return err
		}
		stats.Emitted++
	}
	return rows.Err()
}
