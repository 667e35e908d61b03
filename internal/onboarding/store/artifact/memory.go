package artifact

import (
	"context"
	"os"
	"sync"
)

// InMemoryStore keeps documents in a map for tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{files: make(map[string][]byte)}
}

func (s *InMemoryStore) Save(_ context.Context, email, filename string, data []byte) (string, error) {
	name := storedName(email, filename)
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	s.files[name] = copied
	s.mu.Unlock()
	return name, nil
}

func (s *InMemoryStore) Open(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[ref]
	if !ok {
		return nil, os.ErrNotExist
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Len reports how many documents have been stored.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
