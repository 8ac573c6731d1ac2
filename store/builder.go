package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/project-zeno/aoi-go/catalog"
)

// Builder writes one new generation. The ingestion pipeline adds catalog
// entries and geometry records in build order, then Commit finalizes the
// generation and atomically repoints CURRENT at it. Until Commit returns,
// readers keep seeing the previous generation untouched.
type Builder struct {
	dir        string
	generation string

	db *sql.DB
	tx *sql.Tx

	insertEntry *sql.Stmt
	insertGeom  *sql.Stmt

	entries []catalog.CatalogEntry
	bounds  []catalog.Bound
}

// NewBuilder creates the generation files for a build. generation should be
// unique per run (the pipeline derives it from the build id).
func NewBuilder(dir, generation string) (*Builder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dbPath := filepath.Join(dir, generation+".duckdb")
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("create generation db: %w", err)
	}

	b := &Builder{dir: dir, generation: generation, db: db}
	if err := b.init(); err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, err
	}
	return b, nil
}

func (b *Builder) init() error {
	ddl := []string{
		`CREATE TABLE catalog (
			id BIGINT NOT NULL,
			source VARCHAR NOT NULL,
			source_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			subtype VARCHAR NOT NULL,
			is_gadm BOOLEAN NOT NULL,
			is_kba BOOLEAN NOT NULL,
			is_landmark BOOLEAN NOT NULL,
			is_wdpa BOOLEAN NOT NULL
		)`,
		`CREATE TABLE geometries (
			id BIGINT NOT NULL,
			source VARCHAR NOT NULL,
			source_id VARCHAR NOT NULL,
			min_x DOUBLE NOT NULL,
			min_y DOUBLE NOT NULL,
			max_x DOUBLE NOT NULL,
			max_y DOUBLE NOT NULL,
			geometry BLOB NOT NULL
		)`,
		`CREATE TABLE build_info (
			build_id VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			entries BIGINT NOT NULL
		)`,
		`CREATE TABLE build_dropped (
			source VARCHAR NOT NULL,
			dropped BIGINT NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := b.db.Exec(stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin build transaction: %w", err)
	}
	b.tx = tx

	b.insertEntry, err = tx.Prepare(
		`INSERT INTO catalog VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare catalog insert: %w", err)
	}
	b.insertGeom, err = tx.Prepare(
		`INSERT INTO geometries VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare geometry insert: %w", err)
	}
	return nil
}

// Add writes one catalog entry with its geometry record. The pair must share
// a natural key; the 1:1 invariant between the tables is enforced here, at
// the only write path.
func (b *Builder) Add(ctx context.Context, e catalog.CatalogEntry, g catalog.GeometryRecord) error {
	if e.Key() != g.Key() {
		return fmt.Errorf("catalog/geometry key mismatch: %s vs %s", e.Key(), g.Key())
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if len(g.WKB) == 0 {
		return fmt.Errorf("entry %s: empty geometry", e.Key())
	}

	if _, err := b.insertEntry.ExecContext(ctx,
		e.ID, string(e.Source), e.SourceID, e.Name, string(e.Subtype),
		e.IsGADM, e.IsKBA, e.IsLandmark, e.IsWDPA); err != nil {
		return fmt.Errorf("insert catalog row %s: %w", e.Key(), err)
	}
	if _, err := b.insertGeom.ExecContext(ctx,
		g.ID, string(g.Source), g.SourceID,
		g.Bound.MinX, g.Bound.MinY, g.Bound.MaxX, g.Bound.MaxY,
		g.WKB); err != nil {
		return fmt.Errorf("insert geometry row %s: %w", g.Key(), err)
	}

	b.entries = append(b.entries, e)
	b.bounds = append(b.bounds, g.Bound)
	return nil
}

// Commit finalizes the generation: indexes, build metadata, catalog cache,
// then the CURRENT pointer. CURRENT is rewritten via rename as the last
// step, which is the swap point for readers.
func (b *Builder) Commit(ctx context.Context, info catalog.BuildInfo) error {
	if _, err := b.tx.ExecContext(ctx,
		`INSERT INTO build_info VALUES (?, ?, ?)`,
		info.BuildID, info.CreatedAt, info.Entries); err != nil {
		return fmt.Errorf("write build info: %w", err)
	}
	for src, n := range info.Dropped {
		if _, err := b.tx.ExecContext(ctx,
			`INSERT INTO build_dropped VALUES (?, ?)`, string(src), n); err != nil {
			return fmt.Errorf("write drop counts: %w", err)
		}
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX idx_catalog_key ON catalog (source, source_id)`,
		`CREATE UNIQUE INDEX idx_geometries_key ON geometries (source, source_id)`,
		`CREATE INDEX idx_catalog_subtype ON catalog (subtype)`,
	}
	for _, stmt := range indexes {
		if _, err := b.db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close generation db: %w", err)
	}

	cache := &cacheFile{Info: info, Entries: b.entries, Bounds: b.bounds}
	if err := writeCache(filepath.Join(b.dir, b.generation+".catalog.zst"), cache); err != nil {
		return err
	}

	return b.writeCurrent()
}

func (b *Builder) writeCurrent() error {
	tmp := filepath.Join(b.dir, currentFile+".tmp")
	if err := os.WriteFile(tmp, []byte(b.generation+"\n"), 0o644); err != nil {
		return fmt.Errorf("write CURRENT: %w", err)
	}
	return os.Rename(tmp, filepath.Join(b.dir, currentFile))
}

// Abort discards a failed build, removing its files. Safe to call after a
// failed Commit.
func (b *Builder) Abort() {
	if b.tx != nil {
		b.tx.Rollback()
	}
	b.db.Close()
	os.Remove(filepath.Join(b.dir, b.generation+".duckdb"))
	os.Remove(filepath.Join(b.dir, b.generation+".catalog.zst"))
}

// Generation returns the generation name being built.
func (b *Builder) Generation() string {
	return b.generation
}
