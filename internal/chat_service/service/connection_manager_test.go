package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"docchat/pkg/logger"

	"github.com/gorilla/websocket"
)

// scriptedConn is a Conn fake that serves queued inbound messages and
// records everything written to it.
type scriptedConn struct {
	mu          sync.Mutex
	reads       []string
	writes      []string
	closeFrames []string
	closed      bool
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reads) == 0 {
		return 0, nil, errors.New("connection closed")
	}
	msg := c.reads[0]
	c.reads = c.reads[1:]
	return websocket.TextMessage, []byte(msg), nil
}

func (c *scriptedConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if messageType == websocket.CloseMessage {
		c.closeFrames = append(c.closeFrames, string(data))
		return nil
	}
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) sentTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

func (c *scriptedConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newTestRegistry(t *testing.T) (*ConnectionRegistry, *SessionManager) {
	t.Helper()
	log := logger.New("test", "", "")
	sessions := NewSessionManager(NewMemorySessionStore(), time.Hour, log)
	return NewConnectionRegistry(sessions, log), sessions
}

func TestConnectRejectsUnknownSession(t *testing.T) {
	registry, _ := newTestRegistry(t)
	conn := &scriptedConn{}

	if registry.Connect(context.Background(), "never-issued", conn) {
		t.Fatalf("Connect accepted an unauthorized session")
	}
	if !conn.isClosed() {
		t.Errorf("Rejected connection was not closed")
	}
	if len(conn.closeFrames) != 1 || !strings.Contains(conn.closeFrames[0], "Upload documents first") {
		t.Errorf("Expected a policy-violation close frame, got %v", conn.closeFrames)
	}
}

func TestConnectAcceptsIssuedSession(t *testing.T) {
	registry, sessions := newTestRegistry(t)
	ctx := context.Background()
	token, err := sessions.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	conn := &scriptedConn{}
	if !registry.Connect(ctx, token, conn) {
		t.Fatalf("Connect rejected an authorized session")
	}

	registry.Send(token, "hello")
	if got := conn.sentTexts(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("Send() delivered %v, want [hello]", got)
	}
}

func TestConnectOverwritesExistingConnection(t *testing.T) {
	registry, sessions := newTestRegistry(t)
	ctx := context.Background()
	token, _ := sessions.Issue(ctx)

	first := &scriptedConn{}
	second := &scriptedConn{}
	registry.Connect(ctx, token, first)
	registry.Connect(ctx, token, second)

	registry.Send(token, "for the second")
	if len(first.sentTexts()) != 0 {
		t.Errorf("Message went to the overwritten connection")
	}
	if got := second.sentTexts(); len(got) != 1 || got[0] != "for the second" {
		t.Errorf("Last connection did not receive the message: %v", got)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	registry, sessions := newTestRegistry(t)
	ctx := context.Background()
	token, _ := sessions.Issue(ctx)

	conn := &scriptedConn{}
	registry.Connect(ctx, token, conn)

	registry.Disconnect(token)
	if !conn.isClosed() {
		t.Errorf("Disconnect did not close the connection")
	}
	// A second disconnect for the same or an unknown session is a no-op.
	registry.Disconnect(token)
	registry.Disconnect("never-connected")
}

func TestSendToAbsentSessionIsDropped(t *testing.T) {
	registry, _ := newTestRegistry(t)
	registry.Send("nobody-home", "lost message")
}
