package service

import (
	"context"
	"sort"
	"strings"

	modmodels "civicportal/internal/moderation/models"
	onboardingmodels "civicportal/internal/onboarding/models"
	"civicportal/internal/platform/tracing"
	dErrors "civicportal/pkg/domain-errors"
)

// ApplicationLister reads decided applications.
type ApplicationLister interface {
	List(ctx context.Context, statuses ...modmodels.Status) ([]modmodels.Application, error)
}

// ProfileLister reads verified partner profiles.
type ProfileLister interface {
	ListVerified(ctx context.Context) ([]onboardingmodels.PartnerProfile, error)
}

// Business is one public directory entry: an approved listing, or a verified
// partner that never filed a featured-listing application.
type Business struct {
	BusinessName string            `json:"business_name"`
	Email        string            `json:"email"`
	Category     string            `json:"category,omitempty"`
	Address      string            `json:"address,omitempty"`
	Website      string            `json:"website,omitempty"`
	Description  string            `json:"description,omitempty"`
	Variant      modmodels.Variant `json:"variant,omitempty"`
	Live         bool              `json:"live"`
}

// Service builds the public business directory by joining approved
// applications with verified partner profiles.
type Service struct {
	applications ApplicationLister
	profiles     ProfileLister
}

func New(applications ApplicationLister, profiles ProfileLister) *Service {
	return &Service{applications: applications, profiles: profiles}
}

// List returns the directory, optionally restricted to one category. Live is
// set for businesses whose partner completed verification.
func (s *Service) List(ctx context.Context, category string) ([]Business, error) {
	ctx, span := tracing.Start(ctx, "directory.List")
	defer span.End()

	approved, err := s.applications.List(ctx, modmodels.StatusApproved)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unreachable")
	}
	verified, err := s.profiles.ListVerified(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unreachable")
	}

	live := make(map[string]struct{}, len(verified))
	for _, profile := range verified {
		live[profile.Email] = struct{}{}
	}

	seen := make(map[string]struct{}, len(approved))
	var out []Business
	for _, app := range approved {
		if category != "" && app.Category != category {
			continue
		}
		email := strings.ToLower(app.Email)
		seen[email] = struct{}{}
		_, isLive := live[email]
		out = append(out, Business{
			BusinessName: app.BusinessName,
			Email:        email,
			Category:     app.Category,
			Address:      app.Address,
			Website:      app.Website,
			Description:  app.Description,
			Variant:      app.Variant,
			Live:         isLive,
		})
	}

	// Verified partners without an application carry no category, so they
	// only appear in the unfiltered listing.
	if category == "" {
		for _, profile := range verified {
			if _, ok := seen[profile.Email]; ok {
				continue
			}
			out = append(out, Business{
				BusinessName: profile.BusinessName,
				Email:        profile.Email,
				Live:         true,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BusinessName == out[j].BusinessName {
			return out[i].Email < out[j].Email
		}
		return out[i].BusinessName < out[j].BusinessName
	})
	return out, nil
}
