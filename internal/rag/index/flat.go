package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"docchat/internal/rag/interfaces"
	"docchat/internal/rag/schema"
)

// Flat is an in-memory, brute-force cosine similarity index over embedded
// chunks. One instance is built per session and discarded on disconnect;
// nothing is persisted.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	docs    []*schema.Document
	vectors [][]float32
}

// NewFlat creates an empty index.
func NewFlat() *Flat {
	return &Flat{}
}

// Add appends embedded documents to the index in the given order. Every
// document must carry an embedding of the same dimension.
func (f *Flat) Add(docs []*schema.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
		if f.dim == 0 {
			f.dim = len(doc.Embedding)
		}
		if len(doc.Embedding) != f.dim {
			return fmt.Errorf("document %s has embedding dimension %d, index has %d", doc.ID, len(doc.Embedding), f.dim)
		}
		f.docs = append(f.docs, doc)
		f.vectors = append(f.vectors, doc.Embedding)
	}
	return nil
}

// Search returns the topK most similar documents by cosine similarity, sorted
// by descending score. Ties keep the original insertion order. A topK larger
// than the corpus returns the whole corpus.
func (f *Flat) Search(vector []float32, topK int) []interfaces.Match {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if topK <= 0 || len(f.docs) == 0 {
		return nil
	}

	matches := make([]interfaces.Match, len(f.docs))
	for i := range f.docs {
		matches[i] = interfaces.Match{
			Document: f.docs[i],
			Score:    cosine(f.vectors[i], vector),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK]
}

// Len returns the number of indexed documents.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.docs)
}

// cosine computes the cosine similarity between two vectors. Zero vectors
// score zero.
func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// compile-time check to ensure Flat implements the VectorIndex interface
var _ interfaces.VectorIndex = (*Flat)(nil)
