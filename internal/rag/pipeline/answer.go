package pipeline

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/rag/interfaces"
	"docchat/internal/rag/schema"
	"docchat/pkg/logger"
)

// SentinelNoDocuments is returned, without touching the model, when a
// question arrives before any index has been built.
const SentinelNoDocuments = "No documents have been loaded yet."

const systemInstruction = "You are a question-answering assistant. " +
	"Use the retrieved context to answer the user's question. " +
	"If unsure, say you don't know. " +
	"Keep your response concise, using up to three sentences."

// Result is the tagged outcome of one question. Exactly one of Answer or Err
// is meaningful: a failed embedding or generation call sets Err and leaves
// Answer empty. The transport layer decides how to render an error to the
// user; the pipeline never swallows one silently.
type Result struct {
	Answer  string
	Sources []*schema.Document
	Err     error
}

// AnswerPipeline answers a query against a session's index: embed the query,
// retrieve the top-k chunks, compose a prompt and call the model once.
type AnswerPipeline struct {
	embedder interfaces.EmbeddingModel
	llm      interfaces.LLM
	topK     int
	log      *logger.Logger
}

// NewAnswerPipeline creates a new AnswerPipeline. A non-positive topK
// defaults to 10.
func NewAnswerPipeline(embedder interfaces.EmbeddingModel, llm interfaces.LLM, topK int, log *logger.Logger) *AnswerPipeline {
	if topK <= 0 {
		topK = 10
	}
	return &AnswerPipeline{
		embedder: embedder,
		llm:      llm,
		topK:     topK,
		log:      log,
	}
}

// Run answers one query against idx. A nil or empty index yields the
// no-documents sentinel without invoking the embedding or generation service.
func (p *AnswerPipeline) Run(ctx context.Context, query string, idx interfaces.VectorIndex) Result {
	if idx == nil || idx.Len() == 0 {
		return Result{Answer: SentinelNoDocuments}
	}

	embeddings, err := p.embedder.Embed(ctx, []string{query})
	if err != nil || len(embeddings) == 0 {
		p.log.Error(fmt.Sprintf("Failed to embed query: %v", err))
		return Result{Err: fmt.Errorf("failed to embed query: %w", err)}
	}

	matches := idx.Search(embeddings[0], p.topK)
	sources := make([]*schema.Document, len(matches))
	for i, m := range matches {
		// Copy before annotating; the indexed documents are shared across
		// concurrent queries.
		src := *m.Document
		md := make(map[string]interface{}, len(src.Metadata)+1)
		for k, v := range src.Metadata {
			md[k] = v
		}
		md[schema.MetadataKeyScore] = m.Score
		src.Metadata = md
		sources[i] = &src
	}

	answer, err := p.llm.Generate(ctx, buildPrompt(query, matches))
	if err != nil {
		p.log.Error(fmt.Sprintf("LLM failed to generate answer: %v", err))
		return Result{Err: fmt.Errorf("failed to generate answer: %w", err)}
	}

	return Result{Answer: answer, Sources: sources}
}

// buildPrompt composes the fixed system instruction, the retrieved chunk
// texts and the question into one prompt string.
func buildPrompt(query string, matches []interfaces.Match) string {
	var sb strings.Builder

	sb.WriteString(systemInstruction)
	sb.WriteString("\n\nContext:\n")
	for i, m := range matches {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, m.Document.Text))
	}
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s", query))

	return sb.String()
}
