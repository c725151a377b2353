package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a client for the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI client for the given API key and model name.
func NewOpenAI(apiKey, modelName string) (*OpenAI, error) {
	config := openai.DefaultConfig(apiKey)
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}, nil
}

// Generate sends a single prompt as one user message and returns the
// completed text.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// compile-time check to ensure OpenAI implements the LLM interface
var _ LLM = (*OpenAI)(nil)
