// Package embedding generates fixed-dimension semantic vectors for activity
// text through an OpenAI-compatible embeddings endpoint.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	defaultDims    = 384
	defaultTimeout = 30 * time.Second
)

// Config configures the embeddings client.
type Config struct {
	// APIKey is the bearer token sent to the endpoint. May be empty for
	// unauthenticated local servers.
	APIKey string

	// BaseURL overrides the API endpoint. Any OpenAI-compatible embeddings
	// server works, including local ones.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// Dimensions is the vector size requested from the model. It fixes the
	// store's dimensionality for the process lifetime.
	Dimensions int

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// Client calls an OpenAI-compatible /embeddings endpoint. Record and query
// texts go through the same model, so both live in the same vector space.
// The client is safe for concurrent use.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient constructs a Client, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultDims
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Dimensions reports the configured vector size.
func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

// Embed produces the embedding for a record's text projection.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text)
}

// EmbedQuery produces the embedding for a search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text)
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	body := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      []string{text},
		Dimensions: c.cfg.Dimensions,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("embeddings: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/embeddings",
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("embeddings: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embeddings: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embeddings: read response body: %w", err)
	}

	var decoded embeddingResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("embeddings: decode API response: %w", err)
	}

	if decoded.Error != nil {
		return nil, fmt.Errorf("embeddings: API error (%s): %s", decoded.Error.Type, decoded.Error.Message)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("embeddings: no data returned (HTTP %d)", resp.StatusCode)
	}

	vector := decoded.Data[0].Embedding
	if len(vector) != c.cfg.Dimensions {
		return nil, fmt.Errorf("embeddings: got %d dimensions, want %d", len(vector), c.cfg.Dimensions)
	}
	return vector, nil
}
