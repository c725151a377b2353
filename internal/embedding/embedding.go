package embedding

import (
	"context"
	"fmt"

	"docchat/internal/config"
)

// Embedding is the interface every embedding model client implements.
type Embedding interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts. The result
	// is positionally aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewModel creates an embedding model client for the configured provider.
func NewModel(cfg config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "openai":
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
