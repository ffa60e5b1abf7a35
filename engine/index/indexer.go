// Package index reconciles the record catalog with the vector store: each
// run embeds and upserts exactly the records whose IDs are not stored yet.
// Record text may be enriched before embedding, but the store only ever
// receives the original document.
package index

import (
	"context"
	"log/slog"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/engine/semantic"
	"github.com/WessleyAI/autorag/pkg/fn"
)

// Embedder turns text into a vector. *ollama.EmbedClient satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the vector store surface the indexer needs.
type Store interface {
	ExistingIDs(ctx context.Context, recordIDs []string) (map[string]bool, error)
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
}

// GraphMirror mirrors indexed records into the knowledge graph.
type GraphMirror interface {
	SaveCar(ctx context.Context, rec domain.Record) error
}

// Pacer spaces out embedding calls. *resilience.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Config wires an Indexer. Embedder and Store are required; Graph and
// Limiter are optional.
type Config struct {
	Embedder Embedder
	Store    Store
	Graph    GraphMirror
	Limiter  Pacer
	Logger   *slog.Logger
}

// Stats reports what one Reconcile run saw and did.
type Stats struct {
	Total    int // records in the catalog
	Existing int // already indexed, skipped
	Indexed  int // embedded and written this run
}

// Indexer writes missing catalog records into the vector store.
type Indexer struct {
	store    Store
	graph    GraphMirror
	log      *slog.Logger
	pipeline fn.Stage[domain.Record, semantic.VectorRecord]
}

// enriched pairs a record with the text that will be embedded for it.
type enriched struct {
	rec  domain.Record
	text string
}

// New creates an Indexer. The per-record pipeline is enrich, embed, store;
// every stage carries an OTel span.
func New(cfg Config) *Indexer {
	ix := &Indexer{
		store: cfg.Store,
		graph: cfg.Graph,
		log:   cfg.Logger,
	}
	if ix.log == nil {
		ix.log = slog.Default()
	}

	enrich := fn.TracedStage("index.enrich", func(_ context.Context, rec domain.Record) fn.Result[enriched] {
		return fn.Ok(enriched{rec: rec, text: domain.Enrich(rec)})
	})
	embed := fn.TracedStage("index.embed", embedStage(cfg.Embedder, cfg.Limiter))
	store := fn.TracedStage("index.store", storeStage(cfg.Store))
	ix.pipeline = fn.Then(fn.Then(enrich, embed), store)
	return ix
}

func embedStage(embedder Embedder, pacer Pacer) fn.Stage[enriched, semantic.VectorRecord] {
	return func(ctx context.Context, e enriched) fn.Result[semantic.VectorRecord] {
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return fn.Errf[semantic.VectorRecord]("index: wait for embed slot: %w", err)
			}
		}
		emb, err := embedder.Embed(ctx, e.text)
		if err != nil {
			return fn.Errf[semantic.VectorRecord]("index: embed record %s: %w", e.rec.ID, err)
		}
		return fn.Ok(semantic.VectorRecord{ID: e.rec.ID, Document: e.rec.Text, Embedding: emb})
	}
}

func storeStage(store Store) fn.Stage[semantic.VectorRecord, semantic.VectorRecord] {
	return func(ctx context.Context, vr semantic.VectorRecord) fn.Result[semantic.VectorRecord] {
		if err := store.Upsert(ctx, []semantic.VectorRecord{vr}); err != nil {
			return fn.Errf[semantic.VectorRecord]("index: upsert record %s: %w", vr.ID, err)
		}
		return fn.Ok(vr)
	}
}

// Reconcile indexes every catalog record whose ID is missing from the store,
// in catalog order. Any failure on this path is fatal: the error wraps
// domain.FatalError and the records already written stay written.
func (ix *Indexer) Reconcile(ctx context.Context, records []domain.Record) (Stats, error) {
	stats := Stats{Total: len(records)}
	if stats.Total == 0 {
		return stats, nil
	}

	existing, err := ix.store.ExistingIDs(ctx, domain.IDs(records))
	if err != nil {
		return stats, domain.Fatalf("index: existing ids: %w", err)
	}
	stats.Existing = len(existing)

	missing := fn.Filter(records, func(r domain.Record) bool { return !existing[r.ID] })
	if len(missing) == 0 {
		ix.log.Info("all documents already indexed", "total", stats.Total)
		return stats, nil
	}
	ix.log.Info("indexing documents", "missing", len(missing), "existing", stats.Existing)

	for _, rec := range missing {
		vr, err := ix.pipeline(ctx, rec).Unwrap()
		if err != nil {
			return stats, domain.Fatal(err)
		}
		stats.Indexed++
		ix.log.Info("indexed document", "id", vr.ID)

		if ix.graph != nil {
			if err := ix.graph.SaveCar(ctx, rec); err != nil {
				ix.log.Warn("graph mirror failed", "id", rec.ID, "error", err)
			}
		}
	}
	return stats, nil
}
