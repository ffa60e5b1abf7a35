// Command chat is an interactive terminal session over the indexed catalog.
// On startup it reconciles the dataset into Qdrant, then answers questions
// through the RAG pipeline: embed, search, compose a grounded prompt, and
// generate with Ollama.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/engine/graph"
	"github.com/WessleyAI/autorag/engine/index"
	"github.com/WessleyAI/autorag/engine/rag"
	"github.com/WessleyAI/autorag/engine/semantic"
	"github.com/WessleyAI/autorag/pkg/config"
	"github.com/WessleyAI/autorag/pkg/fn"
	"github.com/WessleyAI/autorag/pkg/ollama"
	"github.com/WessleyAI/autorag/pkg/resilience"
	"github.com/WessleyAI/autorag/pkg/vehiclenlp"
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
		logger.Error("chat session failed", "error", err)
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
	if err := store.EnsureCollection(ctx, cfg.Qdrant.Dims); err != nil {
		return err
	}

	embedder := ollama.NewEmbedClient(ollama.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.EmbedModel,
		Timeout: cfg.Ollama.Timeout(),
	})
	generator := ollama.NewGenerateClient(ollama.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.LLMModel,
		Timeout: cfg.Ollama.Timeout(),
	})
	logger.Info("using Ollama", "url", cfg.Ollama.URL, "embed_model", embedder.Model(), "llm_model", generator.Model())

	// The knowledge graph is opt-in. When enabled, indexed records are
	// mirrored into Neo4j and answers are enriched with graph facts.
	var (
		mirror   index.GraphMirror
		enricher rag.Enricher
	)
	if cfg.Graph.Enabled {
		driver, err := neo4j.NewDriverWithContext(cfg.Graph.URL, neo4j.BasicAuth(cfg.Graph.User, cfg.Graph.Pass, ""))
		if err != nil {
			return err
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return err
		}
		gs := graph.New(driver)
		defer gs.Close(ctx)

		makes := fn.Unique(fn.FilterMap(records, func(r domain.Record) (string, bool) {
			return r.Make, r.Make != ""
		}))
		mirror = gs
		enricher = graph.NewEnricher(gs, vehiclenlp.New(makes))
		logger.Info("knowledge graph enabled", "url", cfg.Graph.URL, "makes", len(makes))
	}

	ix := index.New(index.Config{
		Embedder: embedder,
		Store:    store,
		Graph:    mirror,
		Logger:   logger,
	})
	stats, err := ix.Reconcile(ctx, records)
	if err != nil {
		return err
	}
	logger.Info("catalog reconciled", "total", stats.Total, "existing", stats.Existing, "indexed", stats.Indexed)

	svc := rag.New(rag.Config{
		Embedder:  embedder,
		Searcher:  store,
		Generator: generator,
		Enricher:  enricher,
		Options: rag.Options{
			TopK:     cfg.TopK,
			UseGraph: cfg.Graph.Enabled,
			Breaker:  resilience.NewBreaker(resilience.DefaultBreakerOpts),
		},
		Logger: logger,
	})

	fmt.Println("Ask about the car catalog. Type 'exit' or 'quit' to leave.")
	return repl(ctx, os.Stdin, os.Stdout, svc)
}

// answerer is the slice of rag.Service the REPL needs.
type answerer interface {
	Query(ctx context.Context, question string) (*rag.Answer, error)
}

func repl(ctx context.Context, in io.Reader, out io.Writer, svc answerer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return nil
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if isExit(question) {
			fmt.Fprintln(out, "Bot: Goodbye!")
			return nil
		}

		ans, err := svc.Query(ctx, question)
		if err != nil {
			return err
		}
		for i, src := range ans.Sources {
			fmt.Fprintf(out, "Source %d (ID: %s): %q\n", i+1, src.ID, src.Document)
		}
		fmt.Fprintf(out, "Bot: %s\n", ans.Text)
	}
	return scanner.Err()
}

func isExit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exit", "quit":
		return true
	}
	return false
}
