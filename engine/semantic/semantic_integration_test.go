//go:build integration

package semantic

import (
	"context"
	"os"
	"testing"
)

func qdrantAddr() string {
	if v := os.Getenv("QDRANT_ADDR"); v != "" {
		return v
	}
	return "localhost:6334"
}

func testStore(t *testing.T, collection string) *VectorStore {
	t.Helper()
	vs, err := New(qdrantAddr(), collection)
	if err != nil {
		t.Fatalf("connect qdrant: %v", err)
	}
	t.Cleanup(func() {
		vs.DeleteCollection(context.Background())
		vs.Close()
	})
	return vs
}

func TestQdrant_EnsureCollectionIdempotent(t *testing.T) {
	vs := testStore(t, "it_ensure")
	ctx := context.Background()

	if err := vs.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if err := vs.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection (again): %v", err)
	}
}

func TestQdrant_UpsertSearchRoundTrip(t *testing.T) {
	vs := testStore(t, "it_roundtrip")
	ctx := context.Background()

	if err := vs.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	records := []VectorRecord{
		{ID: "c1", Document: "A compact city car.", Embedding: []float32{1, 0, 0, 0}},
		{ID: "c2", Document: "A large family SUV.", Embedding: []float32{0, 1, 0, 0}},
		{ID: "c3", Document: "A small electric hatchback.", Embedding: []float32{0.9, 0.1, 0, 0}},
	}
	if err := vs.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := vs.Search(ctx, []float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "c1" {
		t.Fatalf("expected c1 first, got %q", results[0].ID)
	}
	if results[0].Document != "A compact city car." {
		t.Fatalf("document altered: %q", results[0].Document)
	}
}

func TestQdrant_ExistingIDs(t *testing.T) {
	vs := testStore(t, "it_existing")
	ctx := context.Background()

	// Before the collection exists, everything reads as missing.
	existing, err := vs.ExistingIDs(ctx, []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("ExistingIDs on missing collection: %v", err)
	}
	if len(existing) != 0 {
		t.Fatalf("expected none, got %v", existing)
	}

	if err := vs.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if err := vs.Upsert(ctx, []VectorRecord{{ID: "c1", Document: "d", Embedding: []float32{1, 0, 0, 0}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	existing, err = vs.ExistingIDs(ctx, []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if !existing["c1"] || existing["c2"] {
		t.Fatalf("wrong membership: %v", existing)
	}
}

func TestQdrant_UpsertOverwrites(t *testing.T) {
	vs := testStore(t, "it_overwrite")
	ctx := context.Background()

	if err := vs.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	first := VectorRecord{ID: "c1", Document: "old text", Embedding: []float32{1, 0, 0, 0}}
	if err := vs.Upsert(ctx, []VectorRecord{first}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second := VectorRecord{ID: "c1", Document: "new text", Embedding: []float32{1, 0, 0, 0}}
	if err := vs.Upsert(ctx, []VectorRecord{second}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	results, err := vs.Search(ctx, []float32{1, 0, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("re-upsert duplicated the point: %d results", len(results))
	}
	if results[0].Document != "new text" {
		t.Fatalf("document = %q", results[0].Document)
	}
}
