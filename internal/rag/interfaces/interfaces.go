package interfaces

import (
	"context"

	"docchat/internal/rag/schema"
)

// Loader is the interface for reading a source file and converting it into a
// list of page-level Documents, in page order.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter is the interface for splitting a list of Documents into smaller chunks.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error)
}

// EmbeddingModel is the interface for a text embedding model. The returned
// vectors are positionally aligned with the input texts.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a language model that can generate text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Match is one similarity search result.
type Match struct {
	Document *schema.Document
	Score    float32
}

// VectorIndex is the interface for a similarity-searchable structure over
// embedded chunks.
type VectorIndex interface {
	Add(docs []*schema.Document) error
	Search(vector []float32, topK int) []Match
	Len() int
}
