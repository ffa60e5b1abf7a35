package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultEmbedModel is used when Config.Model is empty.
const DefaultEmbedModel = "mxbai-embed-large"

// EmbedClient turns text into a fixed-length vector via Ollama's
// /api/embeddings endpoint. One synchronous call per embedding, no retries.
type EmbedClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewEmbedClient creates an Ollama embedding client.
func NewEmbedClient(cfg Config) *EmbedClient {
	cfg.withDefaults(DefaultEmbedModel)
	return &EmbedClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  newHTTPClient(cfg.Timeout),
	}
}

// Model returns the configured embedding model name.
func (c *EmbedClient) Model() string { return c.model }

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding for text. The service answers float64 values;
// they are narrowed to float32 for the vector store.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("ollama: embed: empty text")
	}

	body, _ := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embeddings status %d", ErrConnection, resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode embeddings: %v", ErrMalformedReply, err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("%w: missing embedding field", ErrMalformedReply)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}
