// Command index reconciles the record catalog with the vector store. It
// runs one-shot by default, rescans on an interval with -interval, consumes
// records from the bus with -listen, or feeds the dataset onto the bus with
// -publish. Prometheus-style metrics are served on -metrics-port.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/engine/graph"
	"github.com/WessleyAI/autorag/engine/index"
	"github.com/WessleyAI/autorag/engine/semantic"
	"github.com/WessleyAI/autorag/pkg/config"
	"github.com/WessleyAI/autorag/pkg/metrics"
	"github.com/WessleyAI/autorag/pkg/mid"
	"github.com/WessleyAI/autorag/pkg/natsutil"
	"github.com/WessleyAI/autorag/pkg/ollama"
	"github.com/WessleyAI/autorag/pkg/resilience"
)

var met = metrics.New()

var (
	mIndexed      = met.Counter("autorag_index_records_indexed_total", "Records embedded and written")
	mSkipped      = met.Counter("autorag_index_records_skipped_total", "Records already present at reconcile time")
	mReconciles   = func(result string) *metrics.Counter { return met.Counter(metrics.WithLabels("autorag_index_reconcile_runs_total", "result", result), "Reconcile runs by result") }
	mBusPublished = met.Counter("autorag_index_bus_published_total", "Records published to the bus")
	mLastRun      = met.Gauge("autorag_index_last_run_timestamp", "Epoch of last reconcile run")
	mEmbedDur     = met.Histogram("autorag_index_embed_duration_seconds", "Ollama embed call time", nil)
)

func main() {
	godotenv.Load()

	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		dataset     = flag.String("data", "", "dataset path (overrides config)")
		interval    = flag.Duration("interval", 0, "rescan interval; 0 runs once and exits")
		listen      = flag.Bool("listen", false, "consume records from the bus instead of the dataset")
		publish     = flag.Bool("publish", false, "publish the dataset to the bus and exit")
		reset       = flag.Bool("reset", false, "drop and recreate the collection first")
		embedRate   = flag.Float64("embed-rate", 10, "max embedding calls per second")
		metricsPort = flag.Int("metrics-port", 9091, "metrics listen port; 0 disables")
		logLevel    = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
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

	if *metricsPort > 0 {
		shutdown := serveMetrics(*metricsPort, logger)
		defer shutdown()
	}

	opts := runOpts{
		interval:  *interval,
		listen:    *listen,
		publish:   *publish,
		reset:     *reset,
		embedRate: *embedRate,
	}
	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("index failed", "error", err)
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

type runOpts struct {
	interval  time.Duration
	listen    bool
	publish   bool
	reset     bool
	embedRate float64
}

func run(ctx context.Context, cfg *config.Config, opts runOpts, logger *slog.Logger) error {
	if opts.publish {
		records, err := domain.LoadRecordsFile(cfg.Dataset)
		if err != nil {
			return err
		}
		nc, err := nats.Connect(cfg.Bus.URL)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer nc.Close()
		if err := publishRecords(ctx, nc, records, logger); err != nil {
			return err
		}
		return nc.Flush()
	}

	store, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.reset {
		if err := store.DeleteCollection(ctx); err != nil {
			logger.Warn("drop collection failed", "error", err)
		} else {
			logger.Info("collection dropped", "collection", cfg.Qdrant.Collection)
		}
	}
	if err := store.EnsureCollection(ctx, cfg.Qdrant.Dims); err != nil {
		return err
	}
	logger.Info("connected to Qdrant", "collection", cfg.Qdrant.Collection, "dims", cfg.Qdrant.Dims)

	embedder := timingEmbedder{
		inner: ollama.NewEmbedClient(ollama.Config{
			BaseURL: cfg.Ollama.URL,
			Model:   cfg.Ollama.EmbedModel,
			Timeout: cfg.Ollama.Timeout(),
		}),
		hist: mEmbedDur,
	}

	var mirror index.GraphMirror
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
		mirror = gs
		logger.Info("mirroring records to Neo4j", "url", cfg.Graph.URL)
	}

	ix := index.New(index.Config{
		Embedder: embedder,
		Store:    store,
		Graph:    mirror,
		Limiter:  resilience.NewLimiter(resilience.LimiterOpts{Rate: opts.embedRate, Burst: 1}),
		Logger:   logger,
	})

	if opts.listen {
		nc, err := nats.Connect(cfg.Bus.URL)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer nc.Close()
		sub, err := index.StartConsumer(nc, ix, logger)
		if err != nil {
			return fmt.Errorf("start consumer: %w", err)
		}
		defer sub.Unsubscribe()
		logger.Info("consuming records", "subject", index.RecordsSubject, "bus", cfg.Bus.URL)
		<-ctx.Done()
		return nc.Drain()
	}

	return reconcileLoop(ctx, ix, cfg.Dataset, opts.interval, logger)
}

func reconcileLoop(ctx context.Context, ix *index.Indexer, dataset string, interval time.Duration, logger *slog.Logger) error {
	runOnce := func() error {
		mLastRun.Set(time.Now().Unix())
		records, err := domain.LoadRecordsFile(dataset)
		if err != nil {
			mReconciles("error").Inc()
			return err
		}
		stats, err := ix.Reconcile(ctx, records)
		if err != nil {
			mReconciles("error").Inc()
			return err
		}
		mIndexed.Add(int64(stats.Indexed))
		mSkipped.Add(int64(stats.Existing))
		mReconciles("ok").Inc()
		logger.Info("reconcile done", "total", stats.Total, "existing", stats.Existing, "indexed", stats.Indexed)
		return nil
	}

	if interval <= 0 {
		return runOnce()
	}

	if err := runOnce(); err != nil {
		logger.Error("reconcile failed, will retry on next tick", "error", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := runOnce(); err != nil {
				logger.Error("reconcile failed, will retry on next tick", "error", err)
			}
		}
	}
}

func publishRecords(ctx context.Context, pub natsutil.Publisher, records []domain.Record, logger *slog.Logger) error {
	for _, rec := range records {
		if err := natsutil.Publish(ctx, pub, index.RecordsSubject, rec); err != nil {
			return fmt.Errorf("publish %s: %w", rec.ID, err)
		}
		mBusPublished.Inc()
	}
	logger.Info("records published", "count", len(records), "subject", index.RecordsSubject)
	return nil
}

// timingEmbedder reports embed latency into the histogram.
type timingEmbedder struct {
	inner index.Embedder
	hist  *metrics.Histogram
}

func (t timingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	emb, err := t.inner.Embed(ctx, text)
	if err == nil {
		t.hist.Since(start)
	}
	return emb, err
}

func serveMetrics(port int, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())
	mux.HandleFunc("/healthz", handleHealth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mid.Chain(mux, mid.Logger(logger), mid.Recover(logger), mid.OTel("index")),
	}
	go func() {
		logger.Info("metrics listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
