package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"civicportal/internal/audit"
	"civicportal/internal/onboarding/models"
	"civicportal/internal/platform/metrics"
	"civicportal/internal/platform/tracing"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/sentinel"
)

// ProfileStore persists partner onboarding state. Progress arithmetic is
// server-side: AdvanceProgress moves the profile forward by exactly one step
// and returns the authoritative record.
type ProfileStore interface {
	FindByEmail(ctx context.Context, email string) (*models.PartnerProfile, error)
	Create(ctx context.Context, profile *models.PartnerProfile) error
	AdvanceProgress(ctx context.Context, email string) (*models.PartnerProfile, error)
	MarkVerified(ctx context.Context, email, licenseRef string) (*models.PartnerProfile, error)
}

// ArtifactStore keeps uploaded verification documents. Save returns the
// reference under which the document can be retrieved later.
type ArtifactStore interface {
	Save(ctx context.Context, email, filename string, data []byte) (string, error)
}

// AuditPublisher records onboarding lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Machine drives a partner through the seven-step roadmap. It mirrors the
// profile it last saw per partner, so repeated or out-of-order step requests
// are answered locally without touching the store, and a store failure never
// moves the mirror.
type Machine struct {
	profiles  ProfileStore
	artifacts ArtifactStore

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	mirrors map[string]models.PartnerProfile
}

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

func WithMetrics(mtr *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mtr
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Machine) {
		m.auditPublisher = publisher
	}
}

func NewMachine(profiles ProfileStore, artifacts ArtifactStore, opts ...Option) *Machine {
	m := &Machine{
		profiles:  profiles,
		artifacts: artifacts,
		logger:    slog.Default(),
		locks:     make(map[string]*sync.Mutex),
		mirrors:   make(map[string]models.PartnerProfile),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateProfile registers a fresh profile at progress 1: creating the
// account is the roadmap's first step.
func (m *Machine) CreateProfile(ctx context.Context, email, businessName, displayName string) (*models.PartnerProfile, error) {
	ctx, span := tracing.Start(ctx, "onboarding.CreateProfile")
	defer span.End()

	key := profileKey(email)
	if key == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	lock := m.profileLock(key)
	lock.Lock()
	defer lock.Unlock()

	profile := &models.PartnerProfile{
		Email:        key,
		BusinessName: businessName,
		DisplayName:  displayName,
		Progress:     1,
	}
	if err := m.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a profile already exists for this email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unreachable")
	}

	m.setMirror(key, profile)
	return profile, nil
}

// Profile returns the current onboarding state, refreshing the mirror.
func (m *Machine) Profile(ctx context.Context, email string) (*models.PartnerProfile, error) {
	ctx, span := tracing.Start(ctx, "onboarding.Profile")
	defer span.End()

	key := profileKey(email)
	profile, err := m.profiles.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no partner profile for this email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unreachable")
	}

	m.setMirror(key, profile)
	return profile, nil
}

// MarkStepDone completes roadmap step `ordinal`. Only the immediate next
// step in the 2..6 range does anything: any other ordinal is a no-op against
// the mirrored state and never reaches the store, so retries of an already
// completed step are free. The returned profile is the state after the call.
func (m *Machine) MarkStepDone(ctx context.Context, email string, ordinal int) (*models.PartnerProfile, error) {
	ctx, span := tracing.Start(ctx, "onboarding.MarkStepDone")
	defer span.End()

	key := profileKey(email)
	lock := m.profileLock(key)
	lock.Lock()
	defer lock.Unlock()

	current, err := m.mirrorOrFetch(ctx, key)
	if err != nil {
		return nil, err
	}

	if ordinal != current.Progress+1 || ordinal < 2 || ordinal > models.TotalSteps-1 {
		out := *current
		return &out, nil
	}

	updated, err := m.profiles.AdvanceProgress(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not update progress")
	}

	m.setMirror(key, updated)
	m.metrics.IncrementStepCompleted()
	m.logAudit(ctx, key, audit.ActionStepCompleted, "step "+strconv.Itoa(ordinal))
	return updated, nil
}

// SubmitVerificationDocument runs the final transition: upload the city
// license, then flip the profile to verified. Validation failures are local;
// nothing leaves the process until the request is known to be well-formed.
func (m *Machine) SubmitVerificationDocument(ctx context.Context, email, filename string, data []byte) (*models.PartnerProfile, error) {
	ctx, span := tracing.Start(ctx, "onboarding.SubmitVerificationDocument")
	defer span.End()

	key := profileKey(email)
	lock := m.profileLock(key)
	lock.Lock()
	defer lock.Unlock()

	current, err := m.mirrorOrFetch(ctx, key)
	if err != nil {
		return nil, err
	}

	if current.Verified {
		return nil, dErrors.New(dErrors.CodeAlreadyVerified, "partner is already verified")
	}
	if !current.Step7Unlocked() {
		return nil, dErrors.New(dErrors.CodeValidation, "complete the roadmap before uploading your license")
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "uploaded file is empty")
	}
	if !models.AllowedLicenseExtension(filename) {
		return nil, dErrors.New(dErrors.CodeValidation, "file type not accepted; upload a pdf, png, jpg, jpeg or webp")
	}

	ref, err := m.artifacts.Save(ctx, key, filename, data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not store the uploaded document")
	}

	updated, err := m.profiles.MarkVerified(ctx, key, ref)
	if err != nil {
		// The document is stored but the partner stays unverified; a retry
		// uploads again and supersedes this reference.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not record verification")
	}

	m.setMirror(key, updated)
	m.metrics.IncrementVerification()
	m.logAudit(ctx, key, audit.ActionPartnerVerified, ref)
	return updated, nil
}

// mirrorOrFetch returns the mirrored profile, fetching from the store only
// for partners this process has not seen yet. Callers hold the profile lock.
func (m *Machine) mirrorOrFetch(ctx context.Context, key string) (*models.PartnerProfile, error) {
	m.mu.Lock()
	mirrored, ok := m.mirrors[key]
	m.mu.Unlock()
	if ok {
		out := mirrored
		return &out, nil
	}

	profile, err := m.profiles.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no partner profile for this email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unreachable")
	}
	m.setMirror(key, profile)
	return profile, nil
}

func (m *Machine) setMirror(key string, profile *models.PartnerProfile) {
	m.mu.Lock()
	m.mirrors[key] = *profile
	m.mu.Unlock()
}

// profileLock returns the per-partner mutex, creating it on first use.
// Concurrent operations on the same profile queue; different profiles never
// contend.
func (m *Machine) profileLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

func (m *Machine) logAudit(ctx context.Context, subject, action, detail string) {
	if m.auditPublisher == nil {
		return
	}
	event := audit.Event{Actor: subject, Subject: subject, Action: action, Detail: detail}
	if err := m.auditPublisher.Emit(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}

func profileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
