package service

import (
	"context"
	"sync"

	"docchat/internal/models"
	"docchat/pkg/logger"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the registry needs. The narrow
// interface keeps the connection lifecycle testable without a network.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ConnectionRegistry tracks at most one live WebSocket connection per
// session token and performs the authorization gate at connect time.
type ConnectionRegistry struct {
	mu       sync.Mutex
	conns    map[string]Conn
	sessions *SessionManager
	log      *logger.Logger
}

// NewConnectionRegistry creates an empty registry gated by the given
// session manager.
func NewConnectionRegistry(sessions *SessionManager, log *logger.Logger) *ConnectionRegistry {
	return &ConnectionRegistry{
		conns:    make(map[string]Conn),
		sessions: sessions,
		log:      log,
	}
}

// Connect registers the connection under the session token. If the token is
// not authorized, the connection is closed with a policy-violation close
// frame and false is returned. A second connection with the same token
// overwrites the registry entry; last writer wins.
func (r *ConnectionRegistry) Connect(ctx context.Context, sessionID string, conn Conn) bool {
	if !r.sessions.IsAuthorized(ctx, sessionID) {
		r.log.WithSession(sessionID).Warn("Rejected connection for unknown session")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Upload documents first")
		if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
			r.log.WithSession(sessionID).WithError(models.ErrorInfo{Message: err.Error()}).Debug("Failed to send close frame")
		}
		conn.Close()
		return false
	}

	r.mu.Lock()
	r.conns[sessionID] = conn
	r.mu.Unlock()

	r.log.WithSession(sessionID).Info("Connection registered")
	return true
}

// Disconnect removes the session's connection from the registry and closes
// it. Disconnecting an absent session is a no-op.
func (r *ConnectionRegistry) Disconnect(sessionID string) {
	r.mu.Lock()
	conn, ok := r.conns[sessionID]
	if ok {
		delete(r.conns, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	conn.Close()
	r.log.WithSession(sessionID).Info("Connection removed")
}

// Send delivers a text message to the session's connection. Delivery is
// fire-and-forget: if the session has no connection or the write fails, the
// message is dropped and the failure logged.
func (r *ConnectionRegistry) Send(sessionID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[sessionID]
	if !ok {
		r.log.WithSession(sessionID).Debug("Dropped message for absent connection")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		r.log.WithSession(sessionID).WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to write message")
	}
}
