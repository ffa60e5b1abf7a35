package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	var gotReq embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.5, -1, 2}})
	}))
	defer srv.Close()

	c := NewEmbedClient(Config{BaseURL: srv.URL, Model: "test-embed"})
	got, err := c.Embed(context.Background(), "A compact city car.")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotReq.Model != "test-embed" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Prompt != "A compact city car." {
		t.Errorf("prompt = %q", gotReq.Prompt)
	}
	want := []float32{0.5, -1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmbed_DefaultModel(t *testing.T) {
	c := NewEmbedClient(Config{})
	if c.Model() != DefaultEmbedModel {
		t.Fatalf("model = %q, want %q", c.Model(), DefaultEmbedModel)
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	c := NewEmbedClient(Config{})
	if _, err := c.Embed(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestEmbed_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := NewEmbedClient(Config{BaseURL: srv.URL})
	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewEmbedClient(Config{BaseURL: srv.URL})
	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestEmbed_MalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewEmbedClient(Config{BaseURL: srv.URL})
	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("expected ErrMalformedReply, got %v", err)
	}
}

func TestEmbed_MissingEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewEmbedClient(Config{BaseURL: srv.URL})
	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("expected ErrMalformedReply, got %v", err)
	}
}
