package credentials

import (
	"context"
	"sync"

	"civicportal/internal/session/models"
	"civicportal/pkg/platform/sentinel"
)

// InMemoryStore keeps credentials per session kind. Used in tests and when
// Redis is not configured; it is durable only for the process lifetime.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[models.Kind]models.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[models.Kind]models.Session)}
}

func (s *InMemoryStore) Load(_ context.Context, kind models.Kind) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[kind]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := session
	return &out, nil
}

func (s *InMemoryStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Kind] = *session
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, kind models.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, kind)
	return nil
}
