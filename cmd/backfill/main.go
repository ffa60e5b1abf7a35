// Command backfill mirrors already-indexed records into the catalog graph.
// It exists for stores populated before the graph was enabled: it loads the
// dataset, asks the vector store which of those records are indexed, and
// MERGEs exactly that subset into Neo4j. Safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/engine/graph"
	"github.com/WessleyAI/autorag/engine/semantic"
	"github.com/WessleyAI/autorag/pkg/config"
	"github.com/WessleyAI/autorag/pkg/fn"
)

func main() {
	godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to YAML config file")
		dataset    = flag.String("data", "", "dataset path (overrides config)")
		logLevel   = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if *dataset != "" {
		cfg.Dataset = *dataset
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("backfill failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	records, err := domain.LoadRecordsFile(cfg.Dataset)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "path", cfg.Dataset, "records", len(records))

	store, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	defer store.Close()

	existing, err := store.ExistingIDs(ctx, domain.IDs(records))
	if err != nil {
		return err
	}
	indexed := fn.Filter(records, func(r domain.Record) bool { return existing[r.ID] })
	if len(indexed) == 0 {
		logger.Info("no indexed records to mirror", "records", len(records))
		return nil
	}
	logger.Info("mirroring indexed records", "indexed", len(indexed), "records", len(records))

	driver, err := neo4j.NewDriverWithContext(cfg.Graph.URL, neo4j.BasicAuth(cfg.Graph.User, cfg.Graph.Pass, ""))
	if err != nil {
		return fmt.Errorf("neo4j connect: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j connect: %w", err)
	}
	gs := graph.New(driver)
	defer gs.Close(ctx)

	mirrored, failed := mirrorRecords(ctx, gs, indexed, logger)
	logger.Info("backfill done", "indexed", len(indexed), "mirrored", mirrored, "failed", failed)

	// Verification footer: how big the graph ended up.
	if counts, err := gs.NodeCounts(ctx); err == nil {
		logger.Info("graph nodes", "cars", counts["Car"], "makes", counts["Make"])
	}
	if counts, err := gs.RelationshipCounts(ctx); err == nil {
		logger.Info("graph relationships", "makes_edges", counts["MAKES"])
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d records failed to mirror", failed, len(indexed))
	}
	return nil
}

// carSaver is the slice of graph.GraphStore the backfill loop needs.
type carSaver interface {
	SaveCar(ctx context.Context, rec domain.Record) error
}

// mirrorRecords MERGEs each record into the graph, continuing past individual
// failures so one bad record does not abandon the rest of the run.
func mirrorRecords(ctx context.Context, gs carSaver, records []domain.Record, logger *slog.Logger) (mirrored, failed int) {
	for _, rec := range records {
		if err := gs.SaveCar(ctx, rec); err != nil {
			logger.Warn("mirror failed", "id", rec.ID, "error", err)
			failed++
			continue
		}
		mirrored++
	}
	return mirrored, failed
}
