package aoi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/search"
	"github.com/project-zeno/aoi-go/spatial"
	"github.com/project-zeno/aoi-go/store"
)

// Resolver answers AOI requests against the active catalog generation.
// All methods are goroutine-safe. A Resolver holds the generation's DuckDB
// database open together with in-memory search and spatial indexes; Reload
// swaps the whole set atomically when the pipeline commits a new generation.
type Resolver struct {
	dir    string
	logger *slog.Logger

	mu  sync.RWMutex
	cur *snapshot
}

// snapshot binds one generation's store and derived indexes. It is built
// once and never mutated; reloads build a new one.
type snapshot struct {
	db    *store.DB
	cat   *catalog.Snapshot
	index *search.Index
	boxes *spatial.Index
}

// Open opens the active generation under cfg.Dir and builds the in-memory
// indexes. Returns ErrStoreUnavailable when no committed generation exists.
func Open(cfg Config) (*Resolver, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: store directory is required", ErrInvalidConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap, err := loadSnapshot(cfg.Dir)
	if err != nil {
		return nil, err
	}

	logger.Info("resolver opened",
		"dir", cfg.Dir,
		"generation", snap.db.Generation(),
		"entries", snap.cat.Len(),
	)
	return &Resolver{dir: cfg.Dir, logger: logger, cur: snap}, nil
}

func loadSnapshot(dir string) (*snapshot, error) {
	db, err := store.Open(dir)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewSnapshot(db.Info(), db.Entries())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &snapshot{
		db:    db,
		cat:   cat,
		index: search.Build(cat),
		boxes: spatial.NewIndex(db.Bounds()),
	}, nil
}

// Snapshot returns the active catalog snapshot. The returned snapshot is
// immutable and stays valid across reloads; only geometry access requires
// the generation to still be open.
func (r *Resolver) Snapshot() *catalog.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur.cat
}

// Generation returns the active generation name.
func (r *Resolver) Generation() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur.db.Generation()
}

// Search ranks catalog entries against a free-text query. The query must be
// non-empty; an explicit threshold must lie in [0, 100]; a negative limit is
// rejected. The result is never nil.
func (r *Resolver) Search(ctx context.Context, query string, opts search.Options) ([]search.Match, error) {
	if strings.TrimSpace(search.Normalize(query)) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	if opts.ThresholdSet && (opts.Threshold < 0 || opts.Threshold > 100) {
		return nil, fmt.Errorf("%w: threshold %v outside [0, 100]", ErrInvalidArgument, opts.Threshold)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, opts.Limit)
	}
	for _, st := range opts.Subtypes {
		if _, err := catalog.ParseSubtype(string(st)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur.index.Search(query, opts), nil
}

// ExpandSubregion returns the catalog entries of the target subtype whose
// geometry lies entirely within the AOI identified by (source, sourceID).
// Boundary contact counts as within. An AOI with no such subregions is not
// an error; the result is an empty slice. The AOI itself is never part of
// the result.
func (r *Resolver) ExpandSubregion(ctx context.Context, source catalog.Source, sourceID string, target catalog.Subtype) ([]catalog.CatalogEntry, error) {
	if _, err := catalog.ParseSubtype(string(target)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if sourceID == "" {
		return nil, fmt.Errorf("%w: empty source id", ErrInvalidArgument)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.cur

	key := catalog.Key{Source: source, SourceID: sourceID}
	if _, ok := snap.cat.Lookup(key); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	aoi, err := snap.db.GetGeometry(ctx, key)
	if err != nil {
		return nil, err
	}
	prep, err := spatial.Prepare(aoi)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, key, err)
	}

	// Prune to entries whose bounding box fits inside the AOI's, then
	// filter by subtype before touching any candidate geometry.
	var keys []catalog.Key
	byKey := make(map[catalog.Key]*catalog.CatalogEntry)
	for _, i := range snap.boxes.CoveredBy(prep.Bound()) {
		e := snap.cat.Entry(i)
		if e.Subtype != target || e.Key() == key {
			continue
		}
		keys = append(keys, e.Key())
		byKey[e.Key()] = e
	}

	result := []catalog.CatalogEntry{}
	err = snap.db.Geometries(ctx, keys, func(k catalog.Key, g orb.Geometry) error {
		if prep.Contains(g) {
			result = append(result, *byKey[k])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetGeometry fetches the full geometry of one catalog entry. Returns
// ErrNotFound when (source, sourceID) is absent from the active generation.
func (r *Resolver) GetGeometry(ctx context.Context, source catalog.Source, sourceID string) (orb.Geometry, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("%w: empty source id", ErrInvalidArgument)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur.db.GetGeometry(ctx, catalog.Key{Source: source, SourceID: sourceID})
}

// Reload re-reads CURRENT and swaps in the generation it points at. The
// previous generation closes once in-flight requests drain. Reload is a
// no-op when CURRENT still names the active generation.
func (r *Resolver) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	next, err := loadSnapshot(r.dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	prev := r.cur
	if next.db.Generation() == prev.db.Generation() {
		r.mu.Unlock()
		next.db.Close()
		return nil
	}
	r.cur = next
	r.mu.Unlock()

	r.logger.Info("generation swapped",
		"from", prev.db.Generation(),
		"to", next.db.Generation(),
		"entries", next.cat.Len(),
	)
	return prev.db.Close()
}

// Close releases the active generation. The Resolver must not be used
// afterwards.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur.db.Close()
}
