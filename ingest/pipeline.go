package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/store"
)

// Pipeline rebuilds the catalog and geometry store from scratch. Adapters
// run concurrently with no shared state; their outputs join only at the
// final assembly step, where fresh sequential ids are assigned and the new
// generation is committed. Full rebuild is the only mode; there is no
// incremental update.
type Pipeline struct {
	dir      string
	adapters []Adapter
	logger   *slog.Logger
}

// NewPipeline creates a pipeline writing into the store directory dir.
// A nil logger defaults to slog.Default().
func NewPipeline(dir string, adapters []Adapter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{dir: dir, adapters: adapters, logger: logger}
}

// BuildResult reports one completed rebuild.
type BuildResult struct {
	Generation string
	Info       catalog.BuildInfo
	Stats      map[catalog.Source]Stats
	Elapsed    time.Duration
}

// sourceOutput is one adapter's buffered, normalized output.
type sourceOutput struct {
	source  catalog.Source
	records []normalized
	stats   Stats
	err     error
}

// Run executes a full rebuild: read and normalize all sources in parallel,
// assemble the catalog, commit the generation, repoint CURRENT. Per-record
// defects are dropped and counted; a source that cannot be read at all fails
// the run, leaving the previous generation active.
func (p *Pipeline) Run(ctx context.Context) (*BuildResult, error) {
	if len(p.adapters) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	start := time.Now()
	buildID := uuid.NewString()
	generation := "catalog-" + buildID[:8]
	p.logger.Info("starting catalog rebuild",
		"build_id", buildID,
		"generation", generation,
		"sources", len(p.adapters),
	)

	outputs := make([]sourceOutput, len(p.adapters))
	var wg sync.WaitGroup
	for i, adapter := range p.adapters {
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()
			outputs[i] = p.runAdapter(ctx, adapter)
		}(i, adapter)
	}
	wg.Wait()

	for _, out := range outputs {
		if out.err != nil {
			return nil, fmt.Errorf("source %s: %w", out.source, out.err)
		}
	}

	return p.assemble(ctx, generation, buildID, outputs, start)
}

// runAdapter reads one source, normalizing records as they stream in.
func (p *Pipeline) runAdapter(ctx context.Context, adapter Adapter) sourceOutput {
	src := adapter.Source()
	out := sourceOutput{source: src}

	stats, err := adapter.Read(ctx, func(r Record) error {
		n, nerr := normalizeRecord(src, r)
		if nerr != nil {
			// Normalization failures (bad geometry type, encode errors)
			// follow the same drop-and-count policy as parse failures.
			out.stats.Dropped++
			p.logger.Debug("record dropped", "source", src, "error", nerr)
			return nil
		}
		out.records = append(out.records, n)
		return nil
	})
	out.stats.Read = stats.Read
	out.stats.Dropped += stats.Dropped
	out.stats.Emitted = int64(len(out.records))
	out.err = err

	if err == nil {
		p.logger.Info("source ingested",
			"source", src,
			"read", out.stats.Read,
			"loaded", out.stats.Emitted,
			"dropped", out.stats.Dropped,
		)
	}
	return out
}

// assemble concatenates adapter outputs in order, assigns sequential ids,
// and commits the new generation.
func (p *Pipeline) assemble(ctx context.Context, generation, buildID string, outputs []sourceOutput, start time.Time) (*BuildResult, error) {
	builder, err := store.NewBuilder(p.dir, generation)
	if err != nil {
		return nil, err
	}

	info := catalog.BuildInfo{
		BuildID: buildID,
		Dropped: make(map[catalog.Source]int64),
	}
	statsBySource := make(map[catalog.Source]Stats, len(outputs))

	var entryID, geomID int64
	for _, out := range outputs {
		statsBySource[out.source] = out.stats
		info.Dropped[out.source] = out.stats.Dropped
		for _, n := range out.records {
			entryID++
			geomID++
			n.entry.ID = entryID
			n.geom.ID = geomID
			if err := builder.Add(ctx, n.entry, n.geom); err != nil {
				builder.Abort()
				return nil, err
			}
		}
	}
	info.Entries = entryID
	info.CreatedAt = time.Now().UTC()

	if err := builder.Commit(ctx, info); err != nil {
		builder.Abort()
		return nil, err
	}

	result := &BuildResult{
		Generation: generation,
		Info:       info,
		Stats:      statsBySource,
		Elapsed:    time.Since(start),
	}
	p.logger.Info("catalog rebuild committed",
		"generation", generation,
		"entries", info.Entries,
		"elapsed", result.Elapsed,
	)
	return result, nil
}
