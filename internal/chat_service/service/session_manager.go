package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docchat/internal/models"
	"docchat/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SessionStore defines the interface for the authorized-token set. Tokens
// carry a validity window; an expired token is indistinguishable from one
// that was never issued.
type SessionStore interface {
	Put(ctx context.Context, token string, ttl time.Duration) error
	Exists(ctx context.Context, token string) (bool, error)
}

// MemorySessionStore is an in-process SessionStore with check-and-expire
// semantics on lookup.
type MemorySessionStore struct {
	mu      sync.Mutex
	expiry  map[string]time.Time
	nowFunc func() time.Time
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		expiry:  make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

// Put records the token. A non-positive ttl means the token never expires.
func (s *MemorySessionStore) Put(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deadline time.Time
	if ttl > 0 {
		deadline = s.nowFunc().Add(ttl)
	}
	s.expiry[token] = deadline
	return nil
}

// Exists reports whether the token is present and unexpired. Expired tokens
// are removed on lookup.
func (s *MemorySessionStore) Exists(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.expiry[token]
	if !ok {
		return false, nil
	}
	if !deadline.IsZero() && s.nowFunc().After(deadline) {
		delete(s.expiry, token)
		return false, nil
	}
	return true, nil
}

// RedisSessionStore is a SessionStore backed by Redis, using native key TTLs
// for expiry.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a RedisSessionStore on the given client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Put records the token with the given TTL. A non-positive ttl means no expiry.
func (s *RedisSessionStore) Put(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, sessionKey(token), "1", ttl).Err()
}

// Exists reports whether the token is present and unexpired.
func (s *RedisSessionStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session token: %w", err)
	}
	return n > 0, nil
}

// SessionManager issues one-time-use session tokens at upload time and
// answers authorization checks for connection attempts. There is no explicit
// revocation; tokens lapse through their TTL.
type SessionManager struct {
	store SessionStore
	ttl   time.Duration
	log   *logger.Logger
}

// NewSessionManager creates a SessionManager issuing tokens valid for ttl.
func NewSessionManager(store SessionStore, ttl time.Duration, log *logger.Logger) *SessionManager {
	return &SessionManager{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Issue generates a fresh globally unique token and adds it to the
// authorized set.
func (m *SessionManager) Issue(ctx context.Context) (string, error) {
	token := uuid.New().String()
	if err := m.store.Put(ctx, token, m.ttl); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	m.log.WithPayload(map[string]interface{}{"session_id": token}).Info("Issued session token")
	return token, nil
}

// IsAuthorized reports whether the token was issued and is still valid.
// Store failures are logged and treated as not authorized.
func (m *SessionManager) IsAuthorized(ctx context.Context, token string) bool {
	ok, err := m.store.Exists(ctx, token)
	if err != nil {
		m.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Session store lookup failed")
		return false
	}
	return ok
}

// compile-time checks for the SessionStore implementations
var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
)
