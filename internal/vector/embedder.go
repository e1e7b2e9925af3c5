package vector

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// TextEmbedder implements forecast.Embedder over an OpenAI-compatible
// embedding endpoint. Mistral's embed API is OpenAI-compatible, so the same
// adapter serves the model the corpus was indexed with.
type TextEmbedder struct {
	embedder *embeddings.EmbedderImpl
}

// EmbedderOptions configure the embedding endpoint.
type EmbedderOptions struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewTextEmbedder builds the embedder. Returns an error when no API key is
// configured; callers treat that as "embedding unavailable" and run degraded.
func NewTextEmbedder(opts EmbedderOptions) (*TextEmbedder, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("embedding api key not configured")
	}

	llmOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithEmbeddingModel(opts.Model),
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
	}

	client, err := openai.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	return &TextEmbedder{embedder: embedder}, nil
}

// Embed returns the embedding vector for one text.
func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	return vec, nil
}

// EmbedBatch returns embeddings for a batch of texts. Used by the seeder.
func (e *TextEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding batch: %w", err)
	}
	return vecs, nil
}
