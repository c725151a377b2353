package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"docchat/internal/models"
	"docchat/internal/rag/pipeline"
	"docchat/internal/rag/splitters"
	"docchat/pkg/logger"
)

// memDocStore is an in-memory DocumentStore fake.
type memDocStore struct {
	mu   sync.Mutex
	docs []*models.Document
}

func (s *memDocStore) Create(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *memDocStore) List(ctx context.Context) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Document(nil), s.docs...), nil
}

func (s *memDocStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	return nil
}

// memFileStore is a FileStore fake that maps stored names to pre-made local
// paths.
type memFileStore struct {
	mu    sync.Mutex
	paths map[string]string
	dir   string
}

func newMemFileStore(dir string) *memFileStore {
	return &memFileStore{paths: make(map[string]string), dir: dir}
}

func (s *memFileStore) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[name] = path
	return nil
}

func (s *memFileStore) Localize(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.paths[name]
	if !ok {
		return "", fmt.Errorf("stored file %s is missing", name)
	}
	return path, nil
}

func (s *memFileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = make(map[string]string)
	return nil
}

// stubEmbedder embeds every text as the same small vector.
type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

// stubLLM answers every prompt with a fixed string.
type stubLLM struct {
	answer string
	err    error
}

func (l *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return l.answer, nil
}

type testHarness struct {
	svc      *ChatService
	sessions *SessionManager
	docs     *memDocStore
	files    *memFileStore
	llm      *stubLLM
	embedder *stubEmbedder
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	log := logger.New("test", "", "")
	sessions := NewSessionManager(NewMemorySessionStore(), time.Hour, log)
	registry := NewConnectionRegistry(sessions, log)
	docs := &memDocStore{}
	files := newMemFileStore(t.TempDir())
	embedder := &stubEmbedder{}
	llm := &stubLLM{answer: "forty-two"}
	indexer := pipeline.NewIndexingPipeline(splitters.NewRecursiveSplitter(1000), embedder, log)
	answerer := pipeline.NewAnswerPipeline(embedder, llm, 10, log)
	svc := NewChatService(sessions, registry, docs, files, indexer, answerer, 2, log)
	return &testHarness{svc: svc, sessions: sessions, docs: docs, files: files, llm: llm, embedder: embedder}
}

// uploadText stores a text document through the service the way the upload
// handler would.
func (h *testHarness) uploadText(t *testing.T, name, content string) string {
	t.Helper()
	saved, err := h.svc.StoreDocument(context.Background(), name, strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("StoreDocument() error = %v", err)
	}
	return saved
}

func TestStoreDocumentAssignsCollisionFreeName(t *testing.T) {
	h := newTestHarness(t)

	first := h.uploadText(t, "report.txt", "content one")
	second := h.uploadText(t, "report.txt", "content two")

	if first == second {
		t.Errorf("Two uploads of the same filename got the same stored name")
	}
	if !strings.HasPrefix(first, "report_") || !strings.HasSuffix(first, ".txt") {
		t.Errorf("Stored name %q does not keep the stem and extension", first)
	}

	docs, err := h.docs.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 document records, got %d", len(docs))
	}
	if docs[0].Filename != "report.txt" || docs[0].SavedName != first {
		t.Errorf("Record does not match the upload: %+v", docs[0])
	}
}

func TestHandleConnectionRejectsUnknownSession(t *testing.T) {
	h := newTestHarness(t)
	conn := &scriptedConn{reads: []string{"should never be read"}}

	h.svc.HandleConnection("never-issued", conn)

	if !conn.isClosed() {
		t.Errorf("Unauthorized connection was not closed")
	}
	if len(conn.sentTexts()) != 0 {
		t.Errorf("Unauthorized connection received chat messages: %v", conn.sentTexts())
	}
}

func TestHandleConnectionWithoutDocuments(t *testing.T) {
	h := newTestHarness(t)
	token, _ := h.sessions.Issue(context.Background())
	conn := &scriptedConn{}

	h.svc.HandleConnection(token, conn)

	got := conn.sentTexts()
	if len(got) != 1 || got[0] != msgNoDocuments {
		t.Errorf("Expected the no-documents message, got %v", got)
	}
	if !conn.isClosed() {
		t.Errorf("Connection was not closed after the no-documents message")
	}
}

func TestHandleConnectionAnswersQuestions(t *testing.T) {
	h := newTestHarness(t)
	h.uploadText(t, "notes.txt", "the capital of France is Paris")
	token, _ := h.sessions.Issue(context.Background())

	conn := &scriptedConn{reads: []string{"what is the capital of France?"}}
	h.svc.HandleConnection(token, conn)

	got := conn.sentTexts()
	if len(got) != 2 {
		t.Fatalf("Expected ready message and one answer, got %v", got)
	}
	if got[0] != msgReady {
		t.Errorf("First message = %q, want the ready message", got[0])
	}
	if got[1] != "forty-two" {
		t.Errorf("Answer = %q", got[1])
	}
}

func TestHandleConnectionReportsIndexingFailure(t *testing.T) {
	h := newTestHarness(t)
	h.uploadText(t, "notes.txt", "some content")
	h.embedder.err = errors.New("embedding service unavailable")
	token, _ := h.sessions.Issue(context.Background())

	conn := &scriptedConn{reads: []string{"never answered"}}
	h.svc.HandleConnection(token, conn)

	got := conn.sentTexts()
	if len(got) != 1 || !strings.HasPrefix(got[0], "Error loading PDFs: ") {
		t.Errorf("Expected a load error message, got %v", got)
	}
}

func TestHandleConnectionRendersAnswerErrorsAsChat(t *testing.T) {
	h := newTestHarness(t)
	h.uploadText(t, "notes.txt", "some content")
	h.llm.err = errors.New("model overloaded")
	token, _ := h.sessions.Issue(context.Background())

	conn := &scriptedConn{reads: []string{"a question"}}
	h.svc.HandleConnection(token, conn)

	got := conn.sentTexts()
	if len(got) != 2 {
		t.Fatalf("Expected ready message and one error answer, got %v", got)
	}
	if !strings.HasPrefix(got[1], "Error processing your question: ") {
		t.Errorf("Answer error was not rendered as chat text: %q", got[1])
	}
}

func TestReconnectRebuildsFromStoredDocuments(t *testing.T) {
	h := newTestHarness(t)
	h.uploadText(t, "notes.txt", "persistent knowledge")
	token, _ := h.sessions.Issue(context.Background())

	first := &scriptedConn{reads: []string{"question one"}}
	h.svc.HandleConnection(token, first)

	// The session index is dropped on disconnect.
	if idx := h.svc.getIndex(token); idx != nil {
		t.Errorf("Index survived the disconnect")
	}

	second := &scriptedConn{reads: []string{"question two"}}
	h.svc.HandleConnection(token, second)

	got := second.sentTexts()
	if len(got) != 2 || got[0] != msgReady || got[1] != "forty-two" {
		t.Errorf("Reconnect did not serve answers again: %v", got)
	}
}

func TestAskRebuildsIndexPerCall(t *testing.T) {
	h := newTestHarness(t)
	h.uploadText(t, "notes.txt", "the answer lives here")

	res, err := h.svc.Ask(context.Background(), "where does the answer live?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Err != nil {
		t.Fatalf("Unexpected result error: %v", res.Err)
	}
	if res.Answer != "forty-two" {
		t.Errorf("Answer = %q", res.Answer)
	}
}

func TestAskWithoutDocumentsReturnsSentinel(t *testing.T) {
	h := newTestHarness(t)

	res, err := h.svc.Ask(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Answer != pipeline.SentinelNoDocuments {
		t.Errorf("Answer = %q, want the no-documents sentinel", res.Answer)
	}
}

func TestResetClearsRecordsAndFiles(t *testing.T) {
	h := newTestHarness(t)
	h.uploadText(t, "notes.txt", "to be wiped")

	if err := h.svc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	docs, _ := h.docs.List(context.Background())
	if len(docs) != 0 {
		t.Errorf("Reset left %d document records", len(docs))
	}
	if _, err := h.files.Localize(context.Background(), "anything"); err == nil {
		t.Errorf("Reset left stored files behind")
	}
}
