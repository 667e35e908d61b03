package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"civicportal/internal/audit"
	"civicportal/internal/platform/metrics"
	"civicportal/internal/platform/tracing"
	"civicportal/internal/session/lockout"
	"civicportal/internal/session/models"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/sentinel"
)

// CredentialStore is the durable key-value persistence for
// {session kind -> credential}. Read once at process start, written through
// on every login/logout.
type CredentialStore interface {
	Load(ctx context.Context, kind models.Kind) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, kind models.Kind) error
}

// IdentityChecker verifies credentials against an identity source and
// returns the session to establish.
type IdentityChecker interface {
	VerifyCredentials(ctx context.Context, email, password string) (*models.Session, error)
}

// AuditPublisher records session lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Manager owns the two session tracks. It is the only writer of the
// credential store; every other component reads sessions through it.
type Manager struct {
	store    CredentialStore
	checkers map[models.Kind]IdentityChecker

	lockouts       *lockout.Tracker
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher

	mu      sync.RWMutex
	current map[models.Kind]*models.Session
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mtr *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mtr
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Manager) {
		m.auditPublisher = publisher
	}
}

// WithLockout enables failed-login lockout.
func WithLockout(tracker *lockout.Tracker) Option {
	return func(m *Manager) {
		m.lockouts = tracker
	}
}

// NewManager hydrates both session kinds from the credential store so a
// restart does not force re-authentication.
func NewManager(ctx context.Context, store CredentialStore, partners, admins IdentityChecker, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}

	m := &Manager{
		store: store,
		checkers: map[models.Kind]IdentityChecker{
			models.KindPartner:       partners,
			models.KindAdministrator: admins,
		},
		logger:  slog.Default(),
		current: make(map[models.Kind]*models.Session),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, kind := range []models.Kind{models.KindPartner, models.KindAdministrator} {
		session, err := store.Load(ctx, kind)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential store unreachable")
		}
		m.current[kind] = session
	}
	return m, nil
}

// Login authenticates against the identity checker for the given kind. The
// credential is written through to durable storage before the in-memory
// session reference is updated; a failed write leaves both unchanged.
func (m *Manager) Login(ctx context.Context, kind models.Kind, email, password string) (*models.Session, error) {
	ctx, span := tracing.Start(ctx, "session.Login")
	defer span.End()

	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown session kind")
	}
	checker := m.checkers[kind]
	if checker == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no identity checker for session kind")
	}

	if m.lockouts != nil {
		if locked, _ := m.lockouts.Locked(email); locked {
			m.metrics.IncrementLogin(string(kind), "locked")
			return nil, dErrors.New(dErrors.CodeBusy, "too many failed login attempts; try again later")
		}
	}

	session, err := checker.VerifyCredentials(ctx, email, password)
	if err != nil {
		if m.lockouts != nil && dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			m.lockouts.RecordFailure(email)
		}
		m.metrics.IncrementLogin(string(kind), "failure")
		return nil, err
	}
	if m.lockouts != nil {
		m.lockouts.Clear(email)
	}

	if err := m.store.Save(ctx, session); err != nil {
		m.metrics.IncrementLogin(string(kind), "failure")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not persist session")
	}

	m.mu.Lock()
	m.current[kind] = session
	m.mu.Unlock()

	m.metrics.IncrementLogin(string(kind), "success")
	m.logAudit(ctx, session.Email, loginAction(kind))
	return session, nil
}

// Logout clears the stored session unconditionally. Idempotent: logging out
// with no session is not an error.
func (m *Manager) Logout(ctx context.Context, kind models.Kind) error {
	ctx, span := tracing.Start(ctx, "session.Logout")
	defer span.End()

	if !kind.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown session kind")
	}

	if err := m.store.Delete(ctx, kind); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not clear session")
	}

	m.mu.Lock()
	previous := m.current[kind]
	delete(m.current, kind)
	m.mu.Unlock()

	if previous != nil {
		m.logAudit(ctx, previous.Email, audit.ActionLogout)
	}
	return nil
}

// Current is a synchronous read of the session established at start or by
// the last login. No network round trip.
func (m *Manager) Current(kind models.Kind) (*models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.current[kind]
	return session, ok
}

func (m *Manager) logAudit(ctx context.Context, actor, action string) {
	if m.auditPublisher == nil {
		return
	}
	if err := m.auditPublisher.Emit(ctx, audit.Event{Actor: actor, Subject: actor, Action: action}); err != nil {
		m.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}

func loginAction(kind models.Kind) string {
	if kind == models.KindAdministrator {
		return audit.ActionAdminLogin
	}
	return audit.ActionPartnerLogin
}
