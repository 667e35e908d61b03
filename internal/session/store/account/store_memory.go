package account

import (
	"context"
	"strings"
	"sync"

	"civicportal/internal/session/models"
	"civicportal/pkg/platform/sentinel"
)

// InMemoryStore keeps partner accounts keyed by lowercase email.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[string]models.Account)}
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[normalize(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := acct
	return &out, nil
}

func (s *InMemoryStore) Create(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize(acct.Email)
	if _, exists := s.accounts[key]; exists {
		return sentinel.ErrConflict
	}
	stored := *acct
	stored.Email = key
	s.accounts[key] = stored
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
