package index

import (
	"testing"

	"docchat/internal/rag/schema"
)

func doc(id string, embedding ...float32) *schema.Document {
	return &schema.Document{ID: id, Embedding: embedding}
}

func TestSearchOrdersByDescendingSimilarity(t *testing.T) {
	idx := NewFlat()
	err := idx.Add([]*schema.Document{
		doc("orthogonal", 0, 1),
		doc("aligned", 1, 0),
		doc("diagonal", 1, 1),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	matches := idx.Search([]float32{1, 0}, 3)
	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(matches))
	}
	want := []string{"aligned", "diagonal", "orthogonal"}
	for i, id := range want {
		if matches[i].Document.ID != id {
			t.Errorf("Match %d = %s, want %s", i, matches[i].Document.ID, id)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("Scores not descending at position %d", i)
		}
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	idx := NewFlat()
	// Parallel vectors all have cosine similarity 1 with the query.
	err := idx.Add([]*schema.Document{
		doc("first", 1, 0),
		doc("second", 2, 0),
		doc("third", 3, 0),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	matches := idx.Search([]float32{1, 0}, 3)
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if matches[i].Document.ID != id {
			t.Errorf("Match %d = %s, want %s", i, matches[i].Document.ID, id)
		}
	}
}

func TestSearchTopKLargerThanCorpus(t *testing.T) {
	idx := NewFlat()
	if err := idx.Add([]*schema.Document{doc("only", 1, 1)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	matches := idx.Search([]float32{1, 1}, 10)
	if len(matches) != 1 {
		t.Errorf("Expected the whole corpus, got %d matches", len(matches))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewFlat()
	if matches := idx.Search([]float32{1, 0}, 5); matches != nil {
		t.Errorf("Expected nil matches on empty index, got %v", matches)
	}
	if idx.Len() != 0 {
		t.Errorf("Expected empty index, got %d", idx.Len())
	}
}

func TestAddRejectsMissingEmbedding(t *testing.T) {
	idx := NewFlat()
	if err := idx.Add([]*schema.Document{{ID: "bare"}}); err == nil {
		t.Errorf("Expected an error for a document without an embedding")
	}
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	idx := NewFlat()
	if err := idx.Add([]*schema.Document{doc("a", 1, 0)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := idx.Add([]*schema.Document{doc("b", 1, 0, 1)}); err == nil {
		t.Errorf("Expected an error for mismatched embedding dimensions")
	}
}
