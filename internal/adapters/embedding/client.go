// Package embedding turns career event text into embedding vectors using an
// external model provider.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/pkg/logger"
)

// Supported providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Embedder produces one embedding per text.
type Embedder interface {
	Embed(ctx context.Context, text string) (model.Vector, error)
	Model() string
}

// Config selects and configures the provider.
type Config struct {
	Provider   string
	Model      string
	Dimension  int
	OllamaHost string
	OpenAIKey  string
}

// Client wraps a langchaingo embedder with dimension validation.
type Client struct {
	model     embeddings.Embedder
	modelName string
	dimension int
	logger    logger.Logger
}

// NewClient creates a client for the configured provider.
func NewClient(cfg Config) (*Client, error) {
	var (
		e   embeddings.Embedder
		err error
	)

	switch cfg.Provider {
	case ProviderOllama:
		llm, ollamaErr := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if ollamaErr != nil {
			return nil, fmt.Errorf("create ollama client: %w", ollamaErr)
		}
		e, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}

	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, ErrMissingAPIKey
		}
		llm, openaiErr := openai.New(
			openai.WithToken(cfg.OpenAIKey),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if openaiErr != nil {
			return nil, fmt.Errorf("create openai client: %w", openaiErr)
		}
		e, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}

	default:
		return nil, fmt.Errorf("%q: %w", cfg.Provider, ErrUnsupportedProvider)
	}

	return NewClientFrom(e, cfg.Model, cfg.Dimension), nil
}

// NewClientFrom wraps an existing langchaingo embedder. A dimension <= 0
// disables the dimension check.
func NewClientFrom(e embeddings.Embedder, modelName string, dimension int) *Client {
	return &Client{
		model:     e,
		modelName: modelName,
		dimension: dimension,
		logger:    logger.Get().Named("embedding"),
	}
}

// Embed generates an embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) (model.Vector, error) {
	start := time.Now()
	vectors, err := c.model.EmbedDocuments(ctx, []string{text})
	took := time.Since(start)
	if err != nil {
		c.logger.Warn(ctx, "embedding failed",
			logger.String("model", c.modelName),
			logger.Int("text_len", len(text)),
			logger.Duration("took", took),
			logger.Error(err),
		)
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrNoEmbedding
	}

	v := vectors[0]
	if c.dimension > 0 && len(v) != c.dimension {
		return nil, fmt.Errorf("got %d, want %d: %w", len(v), c.dimension, ErrDimension)
	}
	c.logger.Debug(ctx, "embedding complete",
		logger.String("model", c.modelName),
		logger.Int("text_len", len(text)),
		logger.Duration("took", took),
	)
	return model.Vector(v), nil
}

// Model returns the embedding model name.
func (c *Client) Model() string { return c.modelName }

// Dimension returns the expected embedding dimension.
func (c *Client) Dimension() int { return c.dimension }
