package store

import (
	"context"

	"docchat/internal/models"
)

// DocumentStore defines the interface for document metadata persistence.
// Records are created at upload time, listed at ingestion time, and the whole
// store is cleared at process startup.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	List(ctx context.Context) ([]*models.Document, error)
	Clear(ctx context.Context) error
}
