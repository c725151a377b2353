package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Ollama is a client for a local Ollama generation model.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates an Ollama client. An empty baseURL defaults to the local
// Ollama endpoint.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 300 * time.Second}
	return &Ollama{
		client: ollama.NewClient(parsedURL, hc),
		model:  model,
	}, nil
}

// Generate sends a single prompt to the model and returns the completed text.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var sb strings.Builder

	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp ollama.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate with ollama: %w", err)
	}
	return sb.String(), nil
}

// compile-time check to ensure Ollama implements the LLM interface
var _ LLM = (*Ollama)(nil)
