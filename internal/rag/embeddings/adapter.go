package embeddings

import (
	"context"

	"docchat/internal/embedding"
	"docchat/internal/rag/interfaces"
)

// Adapter bridges a provider embedding client to the pipeline's generic
// EmbeddingModel interface.
type Adapter struct {
	client embedding.Embedding
}

// NewAdapter creates an Adapter around any provider client.
func NewAdapter(client embedding.Embedding) *Adapter {
	return &Adapter{client: client}
}

// Embed calls the underlying client's EmbedBatch method to satisfy the
// EmbeddingModel interface.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return a.client.EmbedBatch(ctx, texts)
}

// compile-time check to ensure Adapter implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*Adapter)(nil)
