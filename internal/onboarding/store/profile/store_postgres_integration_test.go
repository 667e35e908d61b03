//go:build integration

package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"civicportal/internal/onboarding/models"
	"civicportal/pkg/platform/sentinel"
	"civicportal/pkg/testutil/containers"
)

const profileSchema = `
CREATE TABLE IF NOT EXISTS partner_profiles (
    email         TEXT PRIMARY KEY,
    business_name TEXT NOT NULL DEFAULT '',
    display_name  TEXT NOT NULL DEFAULT '',
    progress      INT  NOT NULL DEFAULT 1 CHECK (progress BETWEEN 1 AND 7),
    is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
    license_ref   TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type PostgresStoreIntegrationSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreIntegrationSuite))
}

func (s *PostgresStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), profileSchema)
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreIntegrationSuite) SetupTest() {
	s.postgres.Exec(s.T(), "TRUNCATE partner_profiles")
}

func (s *PostgresStoreIntegrationSuite) seed(progress int) {
	s.Require().NoError(s.store.Create(s.ctx, &models.PartnerProfile{
		Email:        "owner@cafe.example",
		BusinessName: "Corner Cafe",
		DisplayName:  "Sam",
		Progress:     progress,
	}))
}

func (s *PostgresStoreIntegrationSuite) TestCreateAndFind() {
	s.seed(1)

	profile, err := s.store.FindByEmail(s.ctx, "Owner@Cafe.example")
	s.Require().NoError(err)
	s.Equal("owner@cafe.example", profile.Email)
	s.Equal("Corner Cafe", profile.BusinessName)
	s.Equal(1, profile.Progress)
	s.False(profile.Verified)
	s.False(profile.CreatedAt.IsZero())
}

func (s *PostgresStoreIntegrationSuite) TestCreateDuplicateConflicts() {
	s.seed(1)
	err := s.store.Create(s.ctx, &models.PartnerProfile{Email: "owner@cafe.example", Progress: 1})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreIntegrationSuite) TestAdvanceProgress() {
	s.seed(1)

	for want := 2; want <= 6; want++ {
		profile, err := s.store.AdvanceProgress(s.ctx, "owner@cafe.example")
		s.Require().NoError(err)
		s.Equal(want, profile.Progress)
	}

	// Step 7 is reserved for verification.
	_, err := s.store.AdvanceProgress(s.ctx, "owner@cafe.example")
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreIntegrationSuite) TestAdvanceUnknownProfile() {
	_, err := s.store.AdvanceProgress(s.ctx, "ghost@cafe.example")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreIntegrationSuite) TestMarkVerified() {
	s.seed(6)

	profile, err := s.store.MarkVerified(s.ctx, "owner@cafe.example", "license_owner_abc123.pdf")
	s.Require().NoError(err)
	s.True(profile.Verified)
	s.Equal(models.TotalSteps, profile.Progress)
	s.Equal("license_owner_abc123.pdf", profile.LicenseRef)

	_, err = s.store.MarkVerified(s.ctx, "owner@cafe.example", "again.pdf")
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreIntegrationSuite) TestListVerified() {
	s.seed(6)
	s.Require().NoError(s.store.Create(s.ctx, &models.PartnerProfile{Email: "other@shop.example", Progress: 2}))

	_, err := s.store.MarkVerified(s.ctx, "owner@cafe.example", "ref.pdf")
	s.Require().NoError(err)

	verified, err := s.store.ListVerified(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(verified, 1)
	s.Equal("owner@cafe.example", verified[0].Email)
}
