// Package ollama provides HTTP clients for Ollama's embeddings and generate
// endpoints. Both clients distinguish transport failures (ErrConnection) from
// unusable replies (ErrMalformedReply); callers decide how severe either is.
package ollama

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

var (
	// ErrConnection marks transport-level failures: the service is
	// unreachable or answered with a non-2xx status.
	ErrConnection = errors.New("ollama: connection failure")
	// ErrMalformedReply marks replies that decoded wrong or miss the
	// expected field.
	ErrMalformedReply = errors.New("ollama: malformed reply")
)

// Config configures an Ollama client. Zero values fall back to defaults;
// Timeout zero means no client-side deadline.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (c *Config) withDefaults(model string) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = model
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
