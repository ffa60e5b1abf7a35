package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultLLMModel is used when Config.Model is empty.
const DefaultLLMModel = "llama3.2"

// GenerateClient produces completions via Ollama's /api/generate endpoint.
// Streaming is disabled; the full completion arrives in one reply.
type GenerateClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewGenerateClient creates an Ollama generation client.
func NewGenerateClient(cfg Config) *GenerateClient {
	cfg.withDefaults(DefaultLLMModel)
	return &GenerateClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  newHTTPClient(cfg.Timeout),
	}
}

// Model returns the configured generation model name.
func (c *GenerateClient) Model() string { return c.model }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate returns the completion for prompt.
func (c *GenerateClient) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("ollama: generate: empty prompt")
	}

	body, _ := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: generate status %d", ErrConnection, resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode generate: %v", ErrMalformedReply, err)
	}
	if result.Response == "" {
		return "", fmt.Errorf("%w: missing response field", ErrMalformedReply)
	}
	return result.Response, nil
}
