package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.Qdrant.Collection != "cars" {
		t.Errorf("Collection = %q", cfg.Qdrant.Collection)
	}
	if cfg.Ollama.EmbedModel != "mxbai-embed-large" {
		t.Errorf("EmbedModel = %q", cfg.Ollama.EmbedModel)
	}
	if cfg.Graph.Enabled {
		t.Error("graph should be disabled by default")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
dataset: fixtures/fleet.json
top_k: 5
qdrant:
  addr: qdrant.internal:6334
  dims: 768
ollama:
  timeout_secs: 30
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset != "fixtures/fleet.json" {
		t.Errorf("Dataset = %q", cfg.Dataset)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.Qdrant.Addr != "qdrant.internal:6334" {
		t.Errorf("Addr = %q", cfg.Qdrant.Addr)
	}
	if cfg.Qdrant.Dims != 768 {
		t.Errorf("Dims = %d", cfg.Qdrant.Dims)
	}
	// Untouched fields keep their defaults.
	if cfg.Qdrant.Collection != "cars" {
		t.Errorf("Collection = %q", cfg.Qdrant.Collection)
	}
	if cfg.Ollama.LLMModel != "llama3.2" {
		t.Errorf("LLMModel = %q", cfg.Ollama.LLMModel)
	}
	if cfg.Ollama.Timeout().Seconds() != 30 {
		t.Errorf("Timeout = %v", cfg.Ollama.Timeout())
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("top_k: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOP_K", "7")
	t.Setenv("QDRANT_ADDR", "remote:6334")
	t.Setenv("COLLECTION", "fleet")
	t.Setenv("GRAPH_ENABLED", "true")
	t.Setenv("NEO4J_PASS", "s3cret")
	t.Setenv("NATS_URL", "nats://broker:4222")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 7 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.Qdrant.Addr != "remote:6334" {
		t.Errorf("Addr = %q", cfg.Qdrant.Addr)
	}
	if cfg.Qdrant.Collection != "fleet" {
		t.Errorf("Collection = %q", cfg.Qdrant.Collection)
	}
	if !cfg.Graph.Enabled {
		t.Error("GRAPH_ENABLED not applied")
	}
	if cfg.Graph.Pass != "s3cret" {
		t.Errorf("Pass = %q", cfg.Graph.Pass)
	}
	if cfg.Bus.URL != "nats://broker:4222" {
		t.Errorf("Bus.URL = %q", cfg.Bus.URL)
	}
}

func TestLoad_BadEnvValuesIgnored(t *testing.T) {
	t.Setenv("TOP_K", "lots")
	t.Setenv("GRAPH_ENABLED", "maybe")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.Graph.Enabled {
		t.Error("unparsable GRAPH_ENABLED should not enable the graph")
	}
}

func TestLoad_NormalizesNonsense(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
top_k: -1
qdrant:
  dims: 0
  collection: ""
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.Qdrant.Dims != 1024 {
		t.Errorf("Dims = %d", cfg.Qdrant.Dims)
	}
	if cfg.Qdrant.Collection != "cars" {
		t.Errorf("Collection = %q", cfg.Qdrant.Collection)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml {{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("CONFIG_TEST_KEY", "set")
	if envOr("CONFIG_TEST_KEY", "def") != "set" {
		t.Error("set key should win")
	}
	if envOr("CONFIG_TEST_MISSING", "def") != "def" {
		t.Error("missing key should fall back")
	}
}
