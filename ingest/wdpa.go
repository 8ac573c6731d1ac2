package ingest

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/project-zeno/aoi-go/catalog"
)

// WDPAAdapter reads the World Database on Protected Areas NDJSON export.
// Every record becomes subtype protected-area, keyed by the WDPA_PID and
// named from the reserve name, designation, and ISO3 code.
//
// WDPA geometries are detailed coastline-following polygons; they are
// simplified on the way in with a tolerance scaled to the area's size so
// small reserves keep their shape while continental-scale parks shrink.
type WDPAAdapter struct {
	// Path is the NDJSON file location.
	Path string
}

func (a *WDPAAdapter) Source() catalog.Source {
	return catalog.SourceWDPA
}

func (a *WDPAAdapter) Read(ctx context.Context, emit EmitFunc) (Stats, error) {
	return readNDJSON(a.Path, func(f *geojson.Feature) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		sourceID := propString(f.Properties, "wdpa_pid", "wdpaid")
		if sourceID == "" {
			return false, nil
		}
		return true, emit(Record{
			SourceID: sourceID,
			Name: catalog.DisplayName(sourceID,
				propString(f.Properties, "name", "wdpa_name"),
				propString(f.Properties, "desig"),
				propString(f.Properties, "iso3"),
			),
			Subtype:  catalog.SubtypeProtectedArea,
			Geometry: simplifyAdaptive(f.Geometry),
		})
	})
}

// simplifyAdaptive runs Douglas-Peucker with a tolerance stepped by the
// geometry's area in square degrees: roughly 111 m at the equator for small
// reserves, up to 1.1 km for areas above one square degree. Returns the
// original geometry when simplification degenerates it.
func simplifyAdaptive(g orb.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}

	area := planar.Area(g)
	if area < 0 {
		area = -area
	}
	var tolerance float64
	switch {
	case area < 0.01:
		tolerance = 0.001
	case area < 1.0:
		tolerance = 0.005
	default:
		tolerance = 0.01
	}

	simplified := simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(g))
	if degenerate(simplified) {
		return g
	}
	return simplified
}

// degenerate reports whether simplification collapsed a geometry below a
// valid ring.
func degenerate(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return len(v) == 0 || len(v[0]) < 4
	case orb.MultiPolygon:
		if len(v) == 0 {
			return true
		}
		for _, p := range v {
			if len(p) == 0 || len(p[0]) < 4 {
				return true
			}
		}
		return false
	case nil:
		return true
	}
	return false
}
