package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrEmbeddingUnavailable is returned when the embedding service circuit is
// open and calls are being rejected to prevent cascading failures.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// EmbeddingProvider turns text into a semantic vector. When configured, the
// long-term merge path prefers embedding similarity over lexical overlap.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when the vectors differ in length or either has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// HTTPEmbeddingConfig holds configuration for the HTTP embedding client.
type HTTPEmbeddingConfig struct {
	// URL is the embedding endpoint; required.
	URL string

	// Model is sent with each request so the service picks an encoder.
	Model string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
}

// HTTPEmbeddingClient calls an external embedding service over HTTP. Calls
// run through a circuit breaker: after three consecutive failures the
// circuit opens for 30 seconds and requests fail fast with
// ErrEmbeddingUnavailable, letting the merge path fall back to lexical
// similarity without waiting on a dead service.
type HTTPEmbeddingClient struct {
	cfg     HTTPEmbeddingConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// Ensure the interface is satisfied at compile time.
var _ EmbeddingProvider = (*HTTPEmbeddingClient)(nil)

// NewHTTPEmbeddingClient creates a client for the given endpoint.
func NewHTTPEmbeddingClient(cfg HTTPEmbeddingConfig) *HTTPEmbeddingClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "EmbeddingService",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &HTTPEmbeddingClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type embeddingRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding vector for the given text.
func (c *HTTPEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}
	return result.([]float32), nil
}

func (c *HTTPEmbeddingClient) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned empty vector")
	}
	return decoded.Embedding, nil
}
