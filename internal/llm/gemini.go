package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a client for the Gemini generation API.
type Gemini struct {
	model *genai.GenerativeModel
}

// NewGemini creates a Gemini client. Temperature is pinned to zero so answers
// stay grounded in the retrieved context.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	generativeModel := client.GenerativeModel(model)
	generativeModel.SetTemperature(0)

	return &Gemini{model: generativeModel}, nil
}

// Generate sends a single prompt to the model and returns the completed text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or in an unexpected format")
	}
	if text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(text), nil
	}
	return "", fmt.Errorf("gemini response did not contain text")
}

// compile-time check to ensure Gemini implements the LLM interface
var _ LLM = (*Gemini)(nil)
