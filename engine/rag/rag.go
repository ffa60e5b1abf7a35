// Package rag orchestrates the Retrieval-Augmented Generation pipeline.
// It accepts a user question, embeds it, searches the vector store for
// relevant documents, optionally enriches with knowledge-graph facts,
// builds a grounded prompt, and calls the LLM for the final answer.
//
// The two halves of the pipeline fail differently: retrieval errors are
// fatal (the caller cannot proceed without context), while generation
// errors degrade into a diagnostic answer so the session keeps running.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/engine/semantic"
	"github.com/WessleyAI/autorag/pkg/fn"
	"github.com/WessleyAI/autorag/pkg/ollama"
	"github.com/WessleyAI/autorag/pkg/resilience"
)

// Embedder turns a question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher abstracts vector search over the document store.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]semantic.SearchResult, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Enricher optionally contributes knowledge-graph facts about the
// retrieved documents.
type Enricher interface {
	Facts(ctx context.Context, question string, ids []string) ([]string, error)
}

// Options configures the RAG pipeline behaviour.
type Options struct {
	TopK          int
	UseGraph      bool
	SearchTimeout time.Duration
	Breaker       *resilience.Breaker
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:          3,
		UseGraph:      true,
		SearchTimeout: 5 * time.Second,
	}
}

// promptTemplate grounds the model in the retrieved context. The verbatim
// wording matters: answers are judged against exactly this framing.
const promptTemplate = `Use the following context to answer the question.

Context:
%s

Question: %s
Answer:`

// Config wires a Service. Embedder, Searcher and Generator are required;
// Enricher is optional.
type Config struct {
	Embedder  Embedder
	Searcher  Searcher
	Generator Generator
	Enricher  Enricher
	Options   Options
	Logger    *slog.Logger
}

// Service is the RAG orchestration service.
type Service struct {
	embed    Embedder
	search   Searcher
	generate Generator
	enrich   Enricher
	opts     Options
	logger   *slog.Logger
}

// New creates a new RAG Service.
func New(cfg Config) *Service {
	opts := cfg.Options
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultOptions().SearchTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embed:    cfg.Embedder,
		search:   cfg.Searcher,
		generate: cfg.Generator,
		enrich:   cfg.Enricher,
		opts:     opts,
		logger:   logger,
	}
}

// Answer is the structured response from the RAG pipeline.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Source is a retrieved document backing the answer.
type Source struct {
	ID       string  `json:"id"`
	Document string  `json:"document"`
	Score    float32 `json:"score"`
}

// Query runs the full RAG pipeline for a user question. Embedding and
// search failures are fatal. Generation failures are not: the returned
// Answer carries a diagnostic text and the sources that were already
// retrieved, and the error is nil.
func (s *Service) Query(ctx context.Context, question string) (*Answer, error) {
	s.logger.Info("rag query start", "question_len", len(question))

	// 1. Embed the query.
	embedding, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, domain.Fatalf("rag: embed question: %w", err)
	}

	// 2. Semantic search.
	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	results, err := s.search.Search(searchCtx, embedding, s.opts.TopK)
	if err != nil {
		return nil, domain.Fatalf("rag: search: %w", err)
	}
	s.logger.Info("rag search done", "results", len(results))
	for i, r := range results {
		s.logger.Info("rag source", "rank", i+1, "id", r.ID, "score", r.Score, "document", r.Document)
	}

	sources := fn.Map(results, func(r semantic.SearchResult) Source {
		return Source{ID: r.ID, Document: r.Document, Score: r.Score}
	})

	// 3. Build the grounded prompt, optionally with graph facts.
	parts := fn.Map(results, func(r semantic.SearchResult) string { return r.Document })
	if s.opts.UseGraph && s.enrich != nil {
		ids := fn.Map(results, func(r semantic.SearchResult) string { return r.ID })
		facts, err := s.enrich.Facts(ctx, question, ids)
		if err != nil {
			s.logger.Warn("rag: graph enrichment failed, continuing without", "error", err)
		} else {
			parts = append(parts, facts...)
		}
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(parts, "\n"), question)

	// 4. Generate. Failures here degrade, never abort.
	reply, err := s.callGenerator(ctx, prompt)
	if err != nil {
		s.logger.Warn("rag: generate failed", "error", err)
		return &Answer{Text: diagnostic(err), Sources: sources}, nil
	}

	return &Answer{Text: strings.TrimSpace(reply), Sources: sources}, nil
}

func (s *Service) callGenerator(ctx context.Context, prompt string) (string, error) {
	if s.opts.Breaker == nil {
		return s.generate.Generate(ctx, prompt)
	}
	var reply string
	err := s.opts.Breaker.Call(ctx, func(ctx context.Context) error {
		r, err := s.generate.Generate(ctx, prompt)
		reply = r
		return err
	})
	return reply, err
}

// diagnostic renders a generation failure as answer text the user can act on.
func diagnostic(err error) string {
	if errors.Is(err, ollama.ErrConnection) {
		return "Error: could not connect to Ollama while generating the answer. Please make sure Ollama is running."
	}
	return fmt.Sprintf("Error: generating answer: %v.", err)
}
