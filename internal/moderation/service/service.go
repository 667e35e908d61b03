package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"civicportal/internal/audit"
	"civicportal/internal/moderation/models"
	"civicportal/internal/platform/metrics"
	"civicportal/internal/platform/middleware"
	"civicportal/internal/platform/tracing"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/sentinel"
)

// ApplicationStore persists featured-listing applications. SetStatus only
// fires on pending entries; deciding a decided entry reports
// sentinel.ErrInvalidState.
type ApplicationStore interface {
	List(ctx context.Context, statuses ...models.Status) ([]models.Application, error)
	FindByKey(ctx context.Context, key string) (*models.Application, error)
	SetStatus(ctx context.Context, id string, status models.Status) error
}

// AuditPublisher records moderation decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Queue is the moderation surface over pending applications. Listings are
// always read fresh from the store; the queue holds no application state.
// Decisions are globally exclusive: while one is in flight every other
// decision attempt fails fast rather than queueing.
type Queue struct {
	store ApplicationStore

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher

	deciding sync.Mutex
}

// Option configures a Queue.
type Option func(*Queue)

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

func WithMetrics(mtr *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = mtr
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(q *Queue) {
		q.auditPublisher = publisher
	}
}

func NewQueue(store ApplicationStore, opts ...Option) *Queue {
	q := &Queue{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ListPending re-fetches the pending queue from the store.
func (q *Queue) ListPending(ctx context.Context) ([]models.Application, error) {
	ctx, span := tracing.Start(ctx, "moderation.ListPending")
	defer span.End()

	apps, err := q.store.List(ctx, models.StatusPending)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unreachable")
	}
	return apps, nil
}

// ListAll re-fetches every application regardless of status.
func (q *Queue) ListAll(ctx context.Context) ([]models.Application, error) {
	ctx, span := tracing.Start(ctx, "moderation.ListAll")
	defer span.End()

	apps, err := q.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unreachable")
	}
	return apps, nil
}

// Approve decides the entry addressed by the id-or-email key as approved and
// returns it together with a fresh pending listing.
func (q *Queue) Approve(ctx context.Context, key string) (*models.Application, []models.Application, error) {
	ctx, span := tracing.Start(ctx, "moderation.Approve")
	defer span.End()
	return q.decide(ctx, key, models.StatusApproved, audit.ActionApplicationApproved)
}

// Reject decides the entry addressed by the id-or-email key as rejected and
// returns it together with a fresh pending listing.
func (q *Queue) Reject(ctx context.Context, key string) (*models.Application, []models.Application, error) {
	ctx, span := tracing.Start(ctx, "moderation.Reject")
	defer span.End()
	return q.decide(ctx, key, models.StatusRejected, audit.ActionApplicationRejected)
}

func (q *Queue) decide(ctx context.Context, key string, status models.Status, action string) (*models.Application, []models.Application, error) {
	if key == "" {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "an application id or email is required")
	}

	if !q.deciding.TryLock() {
		return nil, nil, dErrors.New(dErrors.CodeBusy, "another moderation action is in progress")
	}
	defer q.deciding.Unlock()

	app, err := q.store.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "no application matches this id or email")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unreachable")
	}
	if app.Status.Terminal() {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "application has already been decided")
	}

	if err := q.store.SetStatus(ctx, app.ID, status); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, nil, dErrors.New(dErrors.CodeValidation, "application has already been decided")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not record the decision")
	}
	app.Status = status

	q.metrics.IncrementModerationDecision(string(status))
	q.logAudit(ctx, app, action)

	pending, err := q.store.List(ctx, models.StatusPending)
	if err != nil {
		// The decision is durable; only the refreshed listing is missing.
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decision recorded but the listing could not be refreshed")
	}
	return app, pending, nil
}

func (q *Queue) logAudit(ctx context.Context, app *models.Application, action string) {
	if q.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Actor:   middleware.GetActorEmail(ctx),
		Subject: app.Email,
		Action:  action,
		Detail:  app.BusinessName,
	}
	if err := q.auditPublisher.Emit(ctx, event); err != nil {
		q.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
