// Package ollama adapts the Ollama API to the embedding and rewrite ports.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"phraseguard/pkg/platform/circuit"
)

const defaultBaseURL = "http://localhost:11434"

// Config selects the server and models.
type Config struct {
	BaseURL        string
	EmbeddingModel string
	RewriteModel   string
	Timeout        time.Duration
}

// Client embeds phrases and rewrites text with models served by Ollama.
// Calls fail fast with circuit.ErrOpen while the server keeps failing.
type Client struct {
	api            *ollama.Client
	embeddingModel string
	rewriteModel   string
	breaker        *circuit.Breaker
	logger         *slog.Logger
}

type Option func(*Client)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	c := &Client{
		api:            ollama.NewClient(u, &http.Client{Timeout: timeout}),
		embeddingModel: cfg.EmbeddingModel,
		rewriteModel:   cfg.RewriteModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuit.New("ollama")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Embed returns the vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := c.guard(ctx, "embed", func() error {
		resp, err := c.api.Embed(ctx, &ollama.EmbedRequest{
			Model: c.embeddingModel,
			Input: text,
		})
		if err != nil {
			return fmt.Errorf("failed to get embeddings from ollama: %w", err)
		}
		if len(resp.Embeddings) == 0 {
			return fmt.Errorf("no embeddings returned")
		}
		out = resp.Embeddings[0]
		return nil
	})
	return out, err
}

// guard runs call through the breaker. Context cancellation is not counted
// against the server.
func (c *Client) guard(ctx context.Context, op string, call func() error) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("ollama %s: %w", op, circuit.ErrOpen)
	}
	err := call()
	if err == nil {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "ollama circuit closed", "op", op)
		}
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "ollama circuit opened", "op", op, "error", err)
	}
	return err
}
