package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"docchat/internal/chat_service/storage"
	"docchat/internal/chat_service/store"
	"docchat/internal/models"
	"docchat/internal/rag/index"
	"docchat/internal/rag/interfaces"
	"docchat/internal/rag/pipeline"
	"docchat/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// User-facing chat messages sent over the WebSocket.
const (
	msgReady       = "PDFs loaded successfully. You can now ask questions."
	msgNoDocuments = "No documents found for this session"
)

// errNoDocuments signals that a session has nothing uploaded to index.
var errNoDocuments = errors.New("no documents uploaded")

// ChatService owns the per-session conversational state: which sessions hold
// a built index, the connection registry, and the gate bounding concurrent
// heavy work (indexing and answering). All cross-session state is guarded
// here; the pipelines themselves stay stateless.
type ChatService struct {
	log      *logger.Logger
	sessions *SessionManager
	registry *ConnectionRegistry
	docs     store.DocumentStore
	files    storage.FileStore
	indexer  *pipeline.IndexingPipeline
	answerer *pipeline.AnswerPipeline
	heavy    *semaphore.Weighted

	mu      sync.Mutex
	indexes map[string]*index.Flat
}

// NewChatService wires the service together. maxHeavyJobs bounds how many
// indexing or answering runs may execute at once; non-positive defaults to 4.
func NewChatService(
	sessions *SessionManager,
	registry *ConnectionRegistry,
	docs store.DocumentStore,
	files storage.FileStore,
	indexer *pipeline.IndexingPipeline,
	answerer *pipeline.AnswerPipeline,
	maxHeavyJobs int,
	log *logger.Logger,
) *ChatService {
	if maxHeavyJobs <= 0 {
		maxHeavyJobs = 4
	}
	return &ChatService{
		log:      log,
		sessions: sessions,
		registry: registry,
		docs:     docs,
		files:    files,
		indexer:  indexer,
		answerer: answerer,
		heavy:    semaphore.NewWeighted(int64(maxHeavyJobs)),
		indexes:  make(map[string]*index.Flat),
	}
}

// Reset wipes all persisted document records and stored files. Called once at
// process startup so the service never serves stale uploads from a previous
// run.
func (s *ChatService) Reset(ctx context.Context) error {
	if err := s.docs.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear document records: %w", err)
	}
	if err := s.files.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored files: %w", err)
	}
	s.log.Info("Cleared document records and stored files")
	return nil
}

// IssueSession creates a fresh authorized session token.
func (s *ChatService) IssueSession(ctx context.Context) (string, error) {
	return s.sessions.Issue(ctx)
}

// IsAuthorized reports whether the session token is valid.
func (s *ChatService) IsAuthorized(ctx context.Context, sessionID string) bool {
	return s.sessions.IsAuthorized(ctx, sessionID)
}

// StoreDocument persists one uploaded file: the content goes to the file
// store under a collision-free name derived from the original, and a metadata
// record goes to the document store. The saved name is returned.
func (s *ChatService) StoreDocument(ctx context.Context, originalName string, r io.Reader, size int64) (string, error) {
	savedName := collisionFreeName(originalName)

	if err := s.files.Save(ctx, savedName, r, size); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	doc := &models.Document{
		ID:        uuid.New().String(),
		Filename:  originalName,
		SavedName: savedName,
		CreatedAt: time.Now(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to record document: %w", err)
	}

	s.log.WithPayload(map[string]interface{}{
		"filename":   originalName,
		"saved_name": savedName,
	}).Info("Stored uploaded document")
	return savedName, nil
}

// HandleConnection runs the lifetime of one authorized WebSocket connection:
// build the session's index from every stored document, confirm readiness,
// then answer questions until the peer goes away. The session's index is
// dropped when the connection ends, so a reconnect rebuilds it from storage.
func (s *ChatService) HandleConnection(sessionID string, conn Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !s.registry.Connect(ctx, sessionID, conn) {
		return
	}

	log := s.log.WithSession(sessionID)
	defer func() {
		s.dropIndex(sessionID)
		s.registry.Disconnect(sessionID)
	}()

	idx, err := s.buildIndex(ctx)
	if errors.Is(err, errNoDocuments) {
		s.registry.Send(sessionID, msgNoDocuments)
		return
	}
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to build session index")
		s.registry.Send(sessionID, "Error loading PDFs: "+err.Error())
		return
	}

	s.setIndex(sessionID, idx)
	s.registry.Send(sessionID, msgReady)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Info("Connection closed by peer")
			return
		}

		res := s.answer(ctx, string(payload), s.getIndex(sessionID))
		s.registry.Send(sessionID, RenderText(res))
	}
}

// Ask answers a single question over all stored documents, outside any
// WebSocket session. The index is built fresh for the call and discarded.
func (s *ChatService) Ask(ctx context.Context, question string) (pipeline.Result, error) {
	idx, err := s.buildIndex(ctx)
	if err != nil && !errors.Is(err, errNoDocuments) {
		return pipeline.Result{}, err
	}
	return s.answer(ctx, question, idx), nil
}

// buildIndex lists every stored document, localizes the files and runs the
// indexing pipeline under the heavy-work gate.
func (s *ChatService) buildIndex(ctx context.Context) (*index.Flat, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, errNoDocuments
	}

	paths := make([]string, len(docs))
	for i, doc := range docs {
		path, err := s.files.Localize(ctx, doc.SavedName)
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}

	if err := s.heavy.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire indexing slot: %w", err)
	}
	defer s.heavy.Release(1)

	return s.indexer.Run(ctx, paths)
}

// answer runs the answering pipeline under the heavy-work gate. A gate
// acquisition failure (cancelled connection) surfaces as a tagged error.
func (s *ChatService) answer(ctx context.Context, question string, idx *index.Flat) pipeline.Result {
	if err := s.heavy.Acquire(ctx, 1); err != nil {
		return pipeline.Result{Err: fmt.Errorf("failed to acquire answering slot: %w", err)}
	}
	defer s.heavy.Release(1)

	// A nil *index.Flat must stay a nil interface for the pipeline's
	// missing-index check.
	var vidx interfaces.VectorIndex
	if idx != nil {
		vidx = idx
	}
	return s.answerer.Run(ctx, question, vidx)
}

func (s *ChatService) setIndex(sessionID string, idx *index.Flat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[sessionID] = idx
}

func (s *ChatService) getIndex(sessionID string) *index.Flat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexes[sessionID]
}

func (s *ChatService) dropIndex(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, sessionID)
}

// RenderText turns a tagged pipeline result into the chat text sent to the
// user. Errors become chat messages rather than closing the connection.
func RenderText(res pipeline.Result) string {
	if res.Err != nil {
		return "Error processing your question: " + res.Err.Error()
	}
	return res.Answer
}

// collisionFreeName keeps the original stem and extension but inserts a UUID
// so concurrent uploads of identically named files never clash.
func collisionFreeName(original string) string {
	ext := ""
	stem := original
	if i := lastDot(original); i >= 0 {
		ext = original[i:]
		stem = original[:i]
	}
	return fmt.Sprintf("%s_%s%s", stem, uuid.New().String(), ext)
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
		if s[i] == '/' || s[i] == '\\' {
			return -1
		}
	}
	return -1
}
