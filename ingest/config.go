package ingest

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config locates the raw source datasets and the store directory. Loaded
// from YAML by the ingestion binary:
//
//	store_dir: /var/lib/aoi
//	sources:
//	  gadm:
//	    geopackage: /data/gadm_410-levels.gpkg
//	  kba:
//	    ndjson: /data/KBAsGlobal_2024_September_03_POL.ndjson
//	  wdpa:
//	    ndjson: /data/wdpa_protected_areas_v202407.ndjson
//	  landmark:
//	    ndjson: /data/landmark_ip_lc.ndjson
//
// Sources may be omitted individually; omitted sources simply contribute no
// rows to the build. Acquisition of the files themselves (download, unzip)
// is outside the pipeline.
type Config struct {
	StoreDir string `yaml:"store_dir"`
	Sources  struct {
		GADM struct {
			GeoPackage string `yaml:"geopackage"`
		} `yaml:"gadm"`
		KBA struct {
			NDJSON string `yaml:"ndjson"`
		} `yaml:"kba"`
		WDPA struct {
			NDJSON string `yaml:"ndjson"`
		} `yaml:"wdpa"`
		Landmark struct {
			NDJSON string `yaml:"ndjson"`
		} `yaml:"landmark"`
	} `yaml:"sources"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.StoreDir == "" {
		return nil, fmt.Errorf("config: store_dir is required")
	}
	return &cfg, nil
}

// Adapters builds the adapter list for the configured sources, in the fixed
// assembly order gadm, kba, landmark, wdpa.
func (c *Config) Adapters() []Adapter {
	var adapters []Adapter
	if c.Sources.GADM.GeoPackage != "" {
		adapters = append(adapters, &GADMAdapter{Path: c.Sources.GADM.GeoPackage})
	}
	if c.Sources.KBA.NDJSON != "" {
		adapters = append(adapters, &KBAAdapter{Path: c.Sources.KBA.NDJSON})
	}
	if c.Sources.Landmark.NDJSON != "" {
		adapters = append(adapters, &LandmarkAdapter{Path: c.Sources.Landmark.NDJSON})
	}
	if c.Sources.WDPA.NDJSON != "" {
		adapters = append(adapters, &WDPAAdapter{Path: c.Sources.WDPA.NDJSON})
	}
	return adapters
}
