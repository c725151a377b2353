package pipeline

import (
	"context"
	"fmt"

	"docchat/internal/rag/index"
	"docchat/internal/rag/interfaces"
	"docchat/internal/rag/loaders"
	"docchat/internal/rag/schema"
	"docchat/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// embedBatchSize caps how many chunk texts go into a single embedding call.
const embedBatchSize = 100

// IndexingPipeline turns a set of document files into a searchable in-memory
// index: load pages, split into chunks, embed, build.
type IndexingPipeline struct {
	splitter interfaces.Splitter
	embedder interfaces.EmbeddingModel
	log      *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(splitter interfaces.Splitter, embedder interfaces.EmbeddingModel, log *logger.Logger) *IndexingPipeline {
	return &IndexingPipeline{
		splitter: splitter,
		embedder: embedder,
		log:      log,
	}
}

// Run executes the full pipeline over the given file paths and returns the
// built index. Paths are loaded concurrently but the resulting pages keep the
// input order. A single unreadable file fails the whole run; an embedding
// failure fails the run with no partial index exposed.
func (p *IndexingPipeline) Run(ctx context.Context, paths []string) (*index.Flat, error) {
	p.log.Info(fmt.Sprintf("Starting indexing for %d files", len(paths)))

	// 1. Load every file into page documents, preserving input order.
	pagesByFile := make([][]*schema.Document, len(paths))
	eg, gCtx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			loader := loaders.ForPath(path)
			pages, err := loader.Load(gCtx, path)
			if err != nil {
				return err
			}
			pagesByFile[i] = pages
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		p.log.WithPayload(map[string]interface{}{"paths": paths}).Error(fmt.Sprintf("Failed to load documents: %v", err))
		return nil, err
	}

	var pages []*schema.Document
	for _, filePages := range pagesByFile {
		pages = append(pages, filePages...)
	}
	p.log.Info(fmt.Sprintf("Loaded %d pages", len(pages)))

	// 2. Split pages into chunks.
	chunks, err := p.splitter.Split(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to split documents: %w", err)
	}
	p.log.Info(fmt.Sprintf("Split into %d chunks", len(chunks)))

	// 3. Embed the chunks, batched and order-preserving.
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}
		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			p.log.Error(fmt.Sprintf("Failed to embed chunks: %v", err))
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(embeddings), len(batch))
		}
		for i, chunk := range batch {
			chunk.Embedding = embeddings[i]
		}
	}

	// 4. Build the index.
	idx := index.NewFlat()
	if err := idx.Add(chunks); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	p.log.Info(fmt.Sprintf("Successfully indexed %d chunks", idx.Len()))
	return idx, nil
}
