package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"
)

// SessionData is the server-side record bound to an opaque token. The client
// only ever holds the token.
type SessionData struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrSessionNotFound is returned by Get for missing or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the keyed store behind the access-control filter.
// Operations are atomic per token; a racing logout and page load may resolve
// in either order but never leave a partial record.
type SessionStore interface {
	// Create stores data under a new unguessable token and returns it.
	Create(ctx context.Context, data SessionData) (string, error)
	// Get returns the live record for token, or ErrSessionNotFound.
	Get(ctx context.Context, token string) (*SessionData, error)
	// Destroy removes the record for token. Destroying an absent token is a no-op.
	Destroy(ctx context.Context, token string) error
}

// newSessionToken returns 32 bytes of cryptographic randomness, URL-safe encoded.
func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MemorySessionStore keeps sessions in a mutex-guarded map. Default backend,
// and the one tests run against.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]SessionData
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]SessionData),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, data SessionData) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[token] = data
	return token, nil
}

func (s *MemorySessionStore) Get(_ context.Context, token string) (*SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(data.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrSessionNotFound
	}
	copied := data
	return &copied, nil
}

func (s *MemorySessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// sweepLocked drops expired records. Called opportunistically on Create so an
// idle store does not grow without bound. Caller holds s.mu.
func (s *MemorySessionStore) sweepLocked() {
	now := s.now()
	for token, data := range s.sessions {
		if !now.Before(data.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
