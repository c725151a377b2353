package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docchat/internal/rag/splitters"
)

func writeTextFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func newTestSplitter() *splitters.RecursiveSplitter {
	return splitters.NewRecursiveSplitter(1000)
}

func TestIndexingBuildsSearchableIndex(t *testing.T) {
	dir := t.TempDir()
	a := writeTextFile(t, dir, "a.txt", "alpha text about cats")
	b := writeTextFile(t, dir, "b.txt", "beta text about dogs")

	embedder := &fakeEmbedder{vector: []float32{1, 2, 3}}
	p := NewIndexingPipeline(newTestSplitter(), embedder, testLogger())

	idx, err := p.Run(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Expected 2 indexed chunks, got %d", idx.Len())
	}
	if embedder.calls != 1 {
		t.Errorf("Expected one batched embedding call, got %d", embedder.calls)
	}
}

func TestIndexingMissingFileAbortsRun(t *testing.T) {
	dir := t.TempDir()
	a := writeTextFile(t, dir, "a.txt", "readable content")
	missing := filepath.Join(dir, "nope.txt")

	embedder := &fakeEmbedder{vector: []float32{1, 2, 3}}
	p := NewIndexingPipeline(newTestSplitter(), embedder, testLogger())

	idx, err := p.Run(context.Background(), []string{a, missing})
	if err == nil {
		t.Fatalf("Expected an error for an unreadable file")
	}
	if idx != nil {
		t.Errorf("Expected no partial index on failure")
	}
}

func TestIndexingEmbedFailureAbortsRun(t *testing.T) {
	dir := t.TempDir()
	a := writeTextFile(t, dir, "a.txt", "some content")

	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	p := NewIndexingPipeline(newTestSplitter(), embedder, testLogger())

	idx, err := p.Run(context.Background(), []string{a})
	if err == nil {
		t.Fatalf("Expected an error when embedding fails")
	}
	if idx != nil {
		t.Errorf("Expected no partial index on failure")
	}
}
