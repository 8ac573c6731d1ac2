// Package store persists the catalog and geometry tables. Each ingestion run
// builds a fresh generation (a DuckDB file plus a compressed catalog cache
// sidecar) and commits it by atomically rewriting the CURRENT pointer file,
// so readers always open a complete build and never a half-written one.
//
// Layout under the store directory:
//
//	CURRENT                    - name of the active generation
//	<generation>.duckdb        - catalog + geometries tables
//	<generation>.catalog.zst   - zstd msgpack catalog cache for fast opens
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/project-zeno/aoi-go/catalog"
)

// Standard errors returned by the store.
var (
	// ErrNotFound indicates a (source, source_id) with no stored geometry.
	ErrNotFound = errors.New("geometry not found")

	// ErrUnavailable indicates the underlying storage cannot be opened or
	// read. Fatal to the calling operation; never silently degraded.
	ErrUnavailable = errors.New("store unavailable")
)

const currentFile = "CURRENT"

// DB is a read-only handle on one committed generation. Immutable after
// Open; safe for concurrent readers.
type DB struct {
	dir        string
	generation string
	db         *sql.DB

	info    catalog.BuildInfo
	entries []catalog.CatalogEntry

	// bounds[i] is the geometry bounding box of entries[i], kept aligned so
	// the spatial index rebuilds without decoding any WKB.
	bounds []catalog.Bound
}

// Open opens the generation named by CURRENT in dir. The catalog rows and
// geometry bounds load from the cache sidecar; geometry bytes stay on disk
// and are fetched per query.
func Open(dir string) (*DB, error) {
	gen, err := readCurrent(dir)
	if err != nil {
		return nil, err
	}
	return OpenGeneration(dir, gen)
}

// OpenGeneration opens a specific generation, bypassing CURRENT. Used by the
// resolver to reload after a rebuild and by tests.
func OpenGeneration(dir, generation string) (*DB, error) {
	dbPath := filepath.Join(dir, generation+".duckdb")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	db, err := sql.Open("duckdb", dbPath+"?access_mode=READ_ONLY")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, dbPath, err)
	}

	s := &DB{dir: dir, generation: generation, db: db}
	if err := s.loadCatalog(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// readCurrent reads the active generation name from the CURRENT file.
func readCurrent(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, currentFile))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	gen := strings.TrimSpace(string(data))
	if gen == "" {
		return "", fmt.Errorf("%w: empty CURRENT file", ErrUnavailable)
	}
	return gen, nil
}

// loadCatalog loads entries and bounds from the cache sidecar, falling back
// to a table scan when the sidecar is missing.
func (s *DB) loadCatalog() error {
	cache, err := readCache(s.cachePath())
	if err == nil {
		s.info = cache.Info
		s.entries = cache.Entries
		s.bounds = cache.Bounds
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.scanCatalog()
}

// scanCatalog rebuilds the in-memory catalog from the DuckDB tables.
func (s *DB) scanCatalog() error {
	rows, err := s.db.Query(`
		SELECT c.id, c.source, c.source_id, c.name, c.subtype,
		       c.is_gadm, c.is_kba, c.is_landmark, c.is_wdpa,
		       g.min_x, g.min_y, g.max_x, g.max_y
		FROM catalog c
		JOIN geometries g ON c.source = g.source AND c.source_id = g.source_id
		ORDER BY c.id`)
	if err != nil {
		return fmt.Errorf("%w: scan catalog: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e catalog.CatalogEntry
		var b catalog.Bound
		var src string
		if err := rows.Scan(&e.ID, &src, &e.SourceID, &e.Name, &e.Subtype,
			&e.IsGADM, &e.IsKBA, &e.IsLandmark, &e.IsWDPA,
			&b.MinX, &b.MinY, &b.MaxX, &b.MaxY); err != nil {
			return fmt.Errorf("%w: scan catalog row: %v", ErrUnavailable, err)
		}
		e.Source = catalog.Source(src)
		s.entries = append(s.entries, e)
		s.bounds = append(s.bounds, b)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: scan catalog: %v", ErrUnavailable, err)
	}

	info, err := s.scanInfo()
	if err != nil {
		return err
	}
	s.info = info
	return nil
}

func (s *DB) scanInfo() (catalog.BuildInfo, error) {
	var info catalog.BuildInfo
	row := s.db.QueryRow(`SELECT build_id, created_at, entries FROM build_info`)
	if err := row.Scan(&info.BuildID, &info.CreatedAt, &info.Entries); err != nil {
		return info, fmt.Errorf("%w: read build info: %v", ErrUnavailable, err)
	}
	info.Dropped = make(map[catalog.Source]int64)
	rows, err := s.db.Query(`SELECT source, dropped FROM build_dropped`)
	if err != nil {
		return info, fmt.Errorf("%w: read drop counts: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int64
		if err := rows.Scan(&src, &n); err != nil {
			return info, fmt.Errorf("%w: read drop counts: %v", ErrUnavailable, err)
		}
		info.Dropped[catalog.Source(src)] = n
	}
	return info, rows.Err()
}

func (s *DB) cachePath() string {
	return filepath.Join(s.dir, s.generation+".catalog.zst")
}

// Generation returns the generation name this handle reads.
func (s *DB) Generation() string {
	return s.generation
}

// Info returns the build metadata of the open generation.
func (s *DB) Info() catalog.BuildInfo {
	return s.info
}

// Entries returns the catalog rows in build order. The caller must treat the
// slice as read-only; it is shared with the snapshot.
func (s *DB) Entries() []catalog.CatalogEntry {
	return s.entries
}

// Bounds returns geometry bounding boxes aligned with Entries.
func (s *DB) Bounds() []catalog.Bound {
	return s.bounds
}

// GetGeometry fetches and decodes one geometry by natural key. Returns
// ErrNotFound when the key has no geometry row.
func (s *DB) GetGeometry(ctx context.Context, key catalog.Key) (orb.Geometry, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT geometry FROM geometries WHERE source = ? AND source_id = ?`,
		string(key.Source), key.SourceID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get geometry %s: %v", ErrUnavailable, key, err)
	}
	geom, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode geometry %s: %v", ErrUnavailable, key, err)
	}
	return geom, nil
}

// geometryBatchSize bounds the IN-list length of batched geometry fetches.
const geometryBatchSize = 500

// Geometries streams decoded geometries for the given keys in batches,
// avoiding one query per row. Keys without a geometry row are skipped; the
// 1:1 catalog invariant makes that a data defect the caller already knows
// how to count. Iteration stops on the first callback error.
func (s *DB) Geometries(ctx context.Context, keys []catalog.Key, fn func(catalog.Key, orb.Geometry) error) error {
	bySource := make(map[catalog.Source][]string)
	for _, k := range keys {
		bySource[k.Source] = append(bySource[k.Source], k.SourceID)
	}
	for src, ids := range bySource {
		for start := 0; start < len(ids); start += geometryBatchSize {
			end := min(start+geometryBatchSize, len(ids))
			if err := s.geometryBatch(ctx, src, ids[start:end], fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *DB) geometryBatch(ctx context.Context, src catalog.Source, ids []string, fn func(catalog.Key, orb.Geometry) error) error {
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, string(src))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, geometry FROM geometries WHERE source = ? AND source_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("%w: batch geometry fetch: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sourceID string
		var raw []byte
		if err := rows.Scan(&sourceID, &raw); err != nil {
			return fmt.Errorf("%w: batch geometry fetch: %v", ErrUnavailable, err)
		}
		key := catalog.Key{Source: src, SourceID: sourceID}
		geom, err := wkb.Unmarshal(raw)
		if err != nil {
			return fmt.Errorf("%w: decode geometry %s: %v", ErrUnavailable, key, err)
		}
		if err := fn(key, geom); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the DuckDB handle.
func (s *DB) Close() error {
	return s.db.Close()
}
