package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	applymodels "civicportal/internal/apply/models"
	"civicportal/internal/moderation/store/application"
	onboardingservice "civicportal/internal/onboarding/service"
	"civicportal/internal/onboarding/store/artifact"
	"civicportal/internal/onboarding/store/profile"
	"civicportal/internal/session/store/account"
	dErrors "civicportal/pkg/domain-errors"
)

type ApplyServiceSuite struct {
	suite.Suite
	ctx          context.Context
	applications *application.InMemoryStore
	artifacts    *artifact.InMemoryStore
	accounts     *account.InMemoryStore
	profiles     *profile.InMemoryStore
	service      *Service
}

func TestApplyServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplyServiceSuite))
}

func (s *ApplyServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.applications = application.NewInMemory()
	s.artifacts = artifact.NewInMemory()
	s.accounts = account.NewInMemory()
	s.profiles = profile.NewInMemory()
	machine := onboardingservice.NewMachine(s.profiles, s.artifacts, onboardingservice.WithLogger(logger))
	s.service = New(s.applications, s.artifacts, s.accounts, machine, WithLogger(logger))
}

func (s *ApplyServiceSuite) submitFood(email string) {
	app, err := applymodels.FoodApplication{
		Name:         "Sam Owner",
		Email:        email,
		BusinessName: "Corner Cafe",
		Category:     "restaurants",
	}.Submission()
	s.Require().NoError(err)
	_, err = s.service.Submit(s.ctx, app, "", nil)
	s.Require().NoError(err)
}

func (s *ApplyServiceSuite) TestSubmitWithoutDocument() {
	s.submitFood("sam@cafe.example")

	stored, err := s.applications.FindByKey(s.ctx, "sam@cafe.example")
	s.Require().NoError(err)
	s.Empty(stored.DocumentRef)
	s.Equal(0, s.artifacts.Len())
}

func (s *ApplyServiceSuite) TestSubmitWithDocument() {
	app, err := applymodels.ShopApplication{
		Name:         "Ria Keeper",
		Email:        "ria@books.example",
		BusinessName: "Riverside Books",
	}.Submission()
	s.Require().NoError(err)

	submitted, err := s.service.Submit(s.ctx, app, "license.pdf", []byte("pdf"))
	s.Require().NoError(err)
	s.NotEmpty(submitted.DocumentRef)
	s.Equal(1, s.artifacts.Len())

	stored, err := s.applications.FindByKey(s.ctx, "ria@books.example")
	s.Require().NoError(err)
	s.Equal(submitted.DocumentRef, stored.DocumentRef)
}

func (s *ApplyServiceSuite) TestSubmitRejectsBadDocumentType() {
	app, err := applymodels.ShopApplication{
		Name:         "Ria Keeper",
		Email:        "ria@books.example",
		BusinessName: "Riverside Books",
	}.Submission()
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, app, "setup.exe", []byte("x"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.applications.FindByKey(s.ctx, "ria@books.example")
	s.Require().Error(err, "nothing stored when the document is rejected")
}

func (s *ApplyServiceSuite) TestDuplicateEmailConflicts() {
	s.submitFood("sam@cafe.example")

	app, err := applymodels.FoodApplication{
		Name:         "Sam Owner",
		Email:        "Sam@Cafe.example",
		BusinessName: "Corner Cafe",
		Category:     "restaurants",
	}.Submission()
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, app, "", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ApplyServiceSuite) TestFinalizeAccount() {
	s.submitFood("sam@cafe.example")

	created, err := s.service.FinalizeAccount(s.ctx, "Sam@Cafe.example", "s3cret-pass", "Sam")
	s.Require().NoError(err)
	s.Equal(1, created.Progress, "account creation completes roadmap step one")
	s.Equal("Corner Cafe", created.BusinessName)

	acct, err := s.accounts.FindByEmail(s.ctx, "sam@cafe.example")
	s.Require().NoError(err)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("s3cret-pass")))
}

func (s *ApplyServiceSuite) TestFinalizeRequiresApplication() {
	_, err := s.service.FinalizeAccount(s.ctx, "ghost@cafe.example", "s3cret-pass", "Ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ApplyServiceSuite) TestFinalizeRejectsShortPassword() {
	s.submitFood("sam@cafe.example")

	_, err := s.service.FinalizeAccount(s.ctx, "sam@cafe.example", "short", "Sam")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ApplyServiceSuite) TestFinalizeTwiceConflicts() {
	s.submitFood("sam@cafe.example")

	_, err := s.service.FinalizeAccount(s.ctx, "sam@cafe.example", "s3cret-pass", "Sam")
	s.Require().NoError(err)

	_, err = s.service.FinalizeAccount(s.ctx, "sam@cafe.example", "s3cret-pass", "Sam")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}
