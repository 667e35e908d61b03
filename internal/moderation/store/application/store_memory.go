package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"civicportal/internal/moderation/models"
	"civicportal/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in submission order. Used in tests and
// when Postgres is not configured.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[string]models.Application
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{apps: make(map[string]models.Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.apps {
		if strings.EqualFold(existing.Email, app.Email) {
			return sentinel.ErrConflict
		}
	}
	stored := *app
	if stored.SubmittedAt.IsZero() {
		stored.SubmittedAt = time.Now().UTC()
	}
	s.apps[app.ID] = stored
	return nil
}

// List returns applications in the given statuses, oldest first. With no
// statuses it returns everything.
func (s *InMemoryStore) List(_ context.Context, statuses ...models.Status) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[models.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	var out []models.Application
	for _, app := range s.apps {
		if len(wanted) > 0 {
			if _, ok := wanted[app.Status]; !ok {
				continue
			}
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// FindByKey resolves an id-or-email key to an application.
func (s *InMemoryStore) FindByKey(_ context.Context, key string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.Matches(key) {
			out := app
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// SetStatus decides a pending application. Deciding a non-pending entry is
// an invalid state transition.
func (s *InMemoryStore) SetStatus(_ context.Context, id string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	app.Status = status
	s.apps[id] = app
	return nil
}
