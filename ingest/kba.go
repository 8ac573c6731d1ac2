package ingest

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"github.com/project-zeno/aoi-go/catalog"
)

// KBAAdapter reads the Key Biodiversity Areas NDJSON export. Every record
// becomes subtype key-biodiversity-area, keyed by the SitRecID site id and
// named from the national name, international name, and ISO3 code.
type KBAAdapter struct {
	// Path is the NDJSON file location.
	Path string
}

func (a *KBAAdapter) Source() catalog.Source {
	return catalog.SourceKBA
}

func (a *KBAAdapter) Read(ctx context.Context, emit EmitFunc) (Stats, error) {
	return readNDJSON(a.Path, func(f *geojson.Feature) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		sourceID := propString(f.Properties, "sitrecid")
		if sourceID == "" {
			return false, nil
		}
		return true, emit(Record{
			SourceID: sourceID,
			Name: catalog.DisplayName(sourceID,
				propString(f.Properties, "natname"),
				propString(f.Properties, "intname"),
				propString(f.Properties, "iso3"),
			),
			Subtype:  catalog.SubtypeKBA,
			Geometry: f.Geometry,
		})
	})
}
