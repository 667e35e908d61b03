package profile

import (
	"context"
	"strings"
	"sync"
	"time"

	"civicportal/internal/onboarding/models"
	"civicportal/pkg/platform/sentinel"
)

// InMemoryStore keeps partner profiles keyed by lowercase email. Used in
// tests and when Postgres is not configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.PartnerProfile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]models.PartnerProfile)}
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.PartnerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[normalize(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := profile
	return &out, nil
}

func (s *InMemoryStore) Create(_ context.Context, profile *models.PartnerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize(profile.Email)
	if _, exists := s.profiles[key]; exists {
		return sentinel.ErrConflict
	}
	stored := *profile
	stored.Email = key
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.profiles[key] = stored
	return nil
}

// AdvanceProgress moves the profile forward by one step, capped below the
// verification step which only MarkVerified may complete.
func (s *InMemoryStore) AdvanceProgress(_ context.Context, email string) (*models.PartnerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize(email)
	profile, ok := s.profiles[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if profile.Progress >= models.TotalSteps-1 {
		return nil, sentinel.ErrInvalidState
	}
	profile.Progress++
	s.profiles[key] = profile
	out := profile
	return &out, nil
}

// MarkVerified completes the final step and records the license reference.
func (s *InMemoryStore) MarkVerified(_ context.Context, email, licenseRef string) (*models.PartnerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize(email)
	profile, ok := s.profiles[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if profile.Verified {
		return nil, sentinel.ErrInvalidState
	}
	profile.Progress = models.TotalSteps
	profile.Verified = true
	profile.LicenseRef = licenseRef
	s.profiles[key] = profile
	out := profile
	return &out, nil
}

// ListVerified returns all verified profiles, for the public directory.
func (s *InMemoryStore) ListVerified(_ context.Context) ([]models.PartnerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PartnerProfile
	for _, profile := range s.profiles {
		if profile.Verified {
			out = append(out, profile)
		}
	}
	return out, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
