package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"civicportal/internal/audit"
	modmodels "civicportal/internal/moderation/models"
	onboardingmodels "civicportal/internal/onboarding/models"
	"civicportal/internal/platform/metrics"
	"civicportal/internal/platform/tracing"
	sessionmodels "civicportal/internal/session/models"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/sentinel"
)

// ApplicationStore receives new submissions and resolves existing ones.
type ApplicationStore interface {
	Create(ctx context.Context, app *modmodels.Application) error
	FindByKey(ctx context.Context, key string) (*modmodels.Application, error)
}

// ArtifactStore keeps optional documents attached to a submission.
type ArtifactStore interface {
	Save(ctx context.Context, email, filename string, data []byte) (string, error)
}

// AccountStore creates partner login accounts.
type AccountStore interface {
	Create(ctx context.Context, acct *sessionmodels.Account) error
}

// ProfileCreator opens the onboarding roadmap for a finalized account.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, email, businessName, displayName string) (*onboardingmodels.PartnerProfile, error)
}

// AuditPublisher records submission lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles the public half of the partner funnel: receiving "get
// featured" applications and turning an approved applicant into a partner
// account with an onboarding profile.
type Service struct {
	applications ApplicationStore
	artifacts    ArtifactStore
	accounts     AccountStore
	profiles     ProfileCreator

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(mtr *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = mtr
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(applications ApplicationStore, artifacts ArtifactStore, accounts AccountStore, profiles ProfileCreator, opts ...Option) *Service {
	s := &Service{
		applications: applications,
		artifacts:    artifacts,
		accounts:     accounts,
		profiles:     profiles,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores a validated application, attaching the optional document
// first so the stored record already carries its reference.
func (s *Service) Submit(ctx context.Context, app *modmodels.Application, filename string, document []byte) (*modmodels.Application, error) {
	ctx, span := tracing.Start(ctx, "apply.Submit")
	defer span.End()

	if len(document) > 0 {
		if !onboardingmodels.AllowedLicenseExtension(filename) {
			return nil, dErrors.New(dErrors.CodeValidation, "file type not accepted; upload a pdf, png, jpg, jpeg or webp")
		}
		ref, err := s.artifacts.Save(ctx, app.Email, filename, document)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not store the attached document")
		}
		app.DocumentRef = ref
	}

	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an application already exists for this email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unreachable")
	}

	s.metrics.IncrementApplicationSubmitted()
	s.logAudit(ctx, app.Email, audit.ActionApplicationReceived, app.BusinessName)
	return app, nil
}

// FinalizeAccount turns an applicant into a partner: it requires an existing
// application for the email, creates the login account and opens the
// onboarding roadmap at step one.
func (s *Service) FinalizeAccount(ctx context.Context, email, password, displayName string) (*onboardingmodels.PartnerProfile, error) {
	ctx, span := tracing.Start(ctx, "apply.FinalizeAccount")
	defer span.End()

	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	app, err := s.applications.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "no application found for this email; apply first")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unreachable")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}

	if err := s.accounts.Create(ctx, &sessionmodels.Account{
		Email:        key,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account already exists for this email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "account store unreachable")
	}

	profile, err := s.profiles.CreateProfile(ctx, key, app.BusinessName, displayName)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, key, audit.ActionAccountFinalized, app.BusinessName)
	return profile, nil
}

func (s *Service) logAudit(ctx context.Context, subject, action, detail string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{Actor: subject, Subject: subject, Action: action, Detail: detail}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
