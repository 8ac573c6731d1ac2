package ingest

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"github.com/project-zeno/aoi-go/catalog"
)

// LandmarkAdapter reads the Landmark indigenous and community lands NDJSON
// export. Every record becomes subtype indigenous-and-community-land, keyed
// by the landmark id and named from the land name, category, and ISO code.
type LandmarkAdapter struct {
	// Path is the NDJSON file location.
	Path string
}

func (a *LandmarkAdapter) Source() catalog.Source {
	return catalog.SourceLandmark
}

func (a *LandmarkAdapter) Read(ctx context.Context, emit EmitFunc) (Stats, error) {
	return readNDJSON(a.Path, func(f *geojson.Feature) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		sourceID := propString(f.Properties, "landmark_id", "objectid")
		if sourceID == "" {
			return false, nil
		}
		return true, emit(Record{
			SourceID: sourceID,
			Name: catalog.DisplayName(sourceID,
				propString(f.Properties, "name"),
				propString(f.Properties, "category"),
				propString(f.Properties, "iso_code"),
			),
			Subtype:  catalog.SubtypeIndigenous,
			Geometry: f.Geometry,
		})
	})
}
