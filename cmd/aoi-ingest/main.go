// Command aoi-ingest rebuilds the AOI catalog and geometry store from the
// configured source datasets. Each run commits a fresh generation and
// repoints CURRENT; serving processes pick it up on their next reload.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/project-zeno/aoi-go/ingest"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("AOI_INGEST_CONFIG", "ingest.yaml"), "path to the ingestion YAML config")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := ingest.LoadConfig(configPath)
	if err != nil {
		return err
	}
	adapters := cfg.Adapters()
	if len(adapters) == 0 {
		return fmt.Errorf("config %s: no sources configured", configPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := ingest.NewPipeline(cfg.StoreDir, adapters, logger).Run(ctx)
	if err != nil {
		return err
	}

	for source, stats := range result.Stats {
		logger.Info("source summary",
			"source", source,
			"read", stats.Read,
			"loaded", stats.Emitted,
			"dropped", stats.Dropped,
		)
	}
	logger.Info("build complete",
		"generation", result.Generation,
		"build_id", result.Info.BuildID,
		"entries", result.Info.Entries,
		"elapsed", result.Elapsed,
	)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
