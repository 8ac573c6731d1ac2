package store

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/project-zeno/aoi-go/catalog"
)

// cacheFile is the catalog cache sidecar: everything a snapshot needs except
// geometry bytes, msgpack-encoded and zstd-compressed. Opening a store reads
// this one file instead of scanning the DuckDB tables.
type cacheFile struct {
	Info    catalog.BuildInfo      `msgpack:"info"`
	Entries []catalog.CatalogEntry `msgpack:"entries"`
	Bounds  []catalog.Bound        `msgpack:"bounds"`
}

func writeCache(path string, c *cacheFile) error {
	raw, err := msgpack.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd encoder: %w", err)
	}

	// Write-then-rename so a crashed build never leaves a truncated cache
	// beside a committed generation.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("write catalog cache: %w", err)
	}
	return os.Rename(tmp, path)
}

func readCache(path string) (*cacheFile, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog cache: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create zstd decoder: %v", ErrUnavailable, err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress catalog cache: %v", ErrUnavailable, err)
	}

	var c cacheFile
	if err := msgpack.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: decode catalog cache: %v", ErrUnavailable, err)
	}
	if len(c.Entries) != len(c.Bounds) {
		return nil, fmt.Errorf("%w: catalog cache entries/bounds mismatch: %d vs %d",
			ErrUnavailable, len(c.Entries), len(c.Bounds))
	}
	return &c, nil
}
