// Package config loads the service configuration: a YAML file overlaid with
// environment variables, with working defaults for a local setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OllamaConfig points at the model server.
type OllamaConfig struct {
	URL         string `yaml:"url"`
	EmbedModel  string `yaml:"embed_model"`
	LLMModel    string `yaml:"llm_model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the configured request timeout, zero meaning none.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// QdrantConfig points at the vector store.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
	Dims       int    `yaml:"dims"`
}

// GraphConfig points at the Neo4j mirror, disabled unless enabled explicitly.
type GraphConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	User    string `yaml:"user"`
	Pass    string `yaml:"pass"`
}

// BusConfig points at the NATS broker.
type BusConfig struct {
	URL string `yaml:"url"`
}

// Config is the root configuration.
type Config struct {
	Dataset string       `yaml:"dataset"`
	TopK    int          `yaml:"top_k"`
	Ollama  OllamaConfig `yaml:"ollama"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
	Graph   GraphConfig  `yaml:"graph"`
	Bus     BusConfig    `yaml:"bus"`
}

// Default returns the configuration for an all-local setup.
func Default() *Config {
	return &Config{
		Dataset: "data/cars.json",
		TopK:    3,
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			EmbedModel: "mxbai-embed-large",
			LLMModel:   "llama3.2",
		},
		Qdrant: QdrantConfig{
			Addr:       "localhost:6334",
			Collection: "cars",
			Dims:       1024,
		},
		Graph: GraphConfig{
			URL:  "neo4j://localhost:7687",
			User: "neo4j",
			Pass: "password",
		},
		Bus: BusConfig{URL: "nats://localhost:4222"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; defaults plus
// environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults + env only
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	normalize(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Dataset = envOr("DATASET", cfg.Dataset)
	if v := os.Getenv("TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.TopK = k
		}
	}
	cfg.Ollama.URL = envOr("OLLAMA_URL", cfg.Ollama.URL)
	cfg.Ollama.EmbedModel = envOr("EMBED_MODEL", cfg.Ollama.EmbedModel)
	cfg.Ollama.LLMModel = envOr("LLM_MODEL", cfg.Ollama.LLMModel)
	cfg.Qdrant.Addr = envOr("QDRANT_ADDR", cfg.Qdrant.Addr)
	cfg.Qdrant.Collection = envOr("COLLECTION", cfg.Qdrant.Collection)
	if v := os.Getenv("GRAPH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Graph.Enabled = b
		}
	}
	cfg.Graph.URL = envOr("NEO4J_URL", cfg.Graph.URL)
	cfg.Graph.User = envOr("NEO4J_USER", cfg.Graph.User)
	cfg.Graph.Pass = envOr("NEO4J_PASS", cfg.Graph.Pass)
	cfg.Bus.URL = envOr("NATS_URL", cfg.Bus.URL)
}

// normalize falls back to defaults for values the file or environment
// emptied or made nonsensical.
func normalize(cfg *Config) {
	def := Default()
	if cfg.Dataset == "" {
		cfg.Dataset = def.Dataset
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = def.Ollama.URL
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = def.Ollama.EmbedModel
	}
	if cfg.Ollama.LLMModel == "" {
		cfg.Ollama.LLMModel = def.Ollama.LLMModel
	}
	if cfg.Qdrant.Addr == "" {
		cfg.Qdrant.Addr = def.Qdrant.Addr
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = def.Qdrant.Collection
	}
	if cfg.Qdrant.Dims <= 0 {
		cfg.Qdrant.Dims = def.Qdrant.Dims
	}
	if cfg.Bus.URL == "" {
		cfg.Bus.URL = def.Bus.URL
	}
}

// envOr returns the environment value for key, or def when unset or empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
