package llm

import (
	"context"
	"fmt"

	"docchat/internal/config"
)

// LLM is the interface every generation model client implements. One prompt
// in, one completed text out; no streaming.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient creates a generation model client for the configured provider.
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "openai":
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
