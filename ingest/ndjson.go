package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// featureFunc receives one parsed GeoJSON feature and reports whether it was
// emitted (false means the caller dropped it).
type featureFunc func(*geojson.Feature) (bool, error)

// readNDJSON streams line-delimited GeoJSON features from path. Unparseable
// lines count as drops; blank lines are ignored. Stats cover reads and drops
// only; fn tracks emissions through its return value.
func readNDJSON(path string, fn featureFunc) (Stats, error) {
	var stats Stats

	f, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("open ndjson: %w", err)
	}
	defer f.Close()

	// Country-scale multipolygons run to megabytes per line, far past the
	// bufio.Scanner default.
	r := bufio.NewReaderSize(f, 1<<20)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				stats.Read++
				feature, perr := geojson.UnmarshalFeature(line)
				if perr != nil || feature.Geometry == nil {
					stats.Dropped++
				} else {
					emitted, ferr := fn(feature)
					if ferr != nil {
						return stats, ferr
					}
					if emitted {
						stats.Emitted++
					} else {
						stats.Dropped++
					}
				}
			}
		}
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read ndjson: %w", err)
		}
	}
}

// propString fetches the first present property among keys, tolerating the
// case differences between source vintages ("WDPA_PID" vs "wdpa_pid") and
// numeric ids stored as JSON numbers.
func propString(props geojson.Properties, keys ...string) string {
	for _, want := range keys {
		for k, v := range props {
			if !strings.EqualFold(k, want) {
				continue
			}
			switch val := v.(type) {
			case string:
				if val != "" {
					return val
				}
			case float64:
				// JSON numbers decode as float64; ids are integral.
				return strconv.FormatInt(int64(val), 10)
			case int:
				return strconv.Itoa(val)
			case int64:
				return strconv.FormatInt(val, 10)
			}
		}
	}
	return ""
}
