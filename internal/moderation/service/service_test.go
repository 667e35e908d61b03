package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civicportal/internal/moderation/models"
	"civicportal/internal/moderation/store/application"
	dErrors "civicportal/pkg/domain-errors"
)

// gatedStore holds FindByKey open so a decision can be kept in flight.
type gatedStore struct {
	*application.InMemoryStore
	findEntered chan struct{}
	findRelease chan struct{}
}

func (s *gatedStore) FindByKey(ctx context.Context, key string) (*models.Application, error) {
	if s.findEntered != nil {
		s.findEntered <- struct{}{}
		<-s.findRelease
	}
	return s.InMemoryStore.FindByKey(ctx, key)
}

type QueueSuite struct {
	suite.Suite
	ctx   context.Context
	store *application.InMemoryStore
	queue *Queue
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = application.NewInMemory()
	s.queue = NewQueue(s.store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *QueueSuite) seed(email string) *models.Application {
	app := &models.Application{
		ID:           uuid.NewString(),
		Name:         "Sam Owner",
		Email:        email,
		BusinessName: "Corner Cafe",
		Category:     "cafés_coffee_shops",
		Variant:      models.VariantFood,
		Status:       models.StatusPending,
		SubmittedAt:  time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(s.ctx, app))
	return app
}

func (s *QueueSuite) TestListPending() {
	s.seed("a@cafe.example")
	s.seed("b@shop.example")

	pending, err := s.queue.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 2)
}

func (s *QueueSuite) TestApproveByID() {
	app := s.seed("a@cafe.example")
	s.seed("b@shop.example")

	decided, pending, err := s.queue.Approve(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, decided.Status)
	s.Require().Len(pending, 1, "the decided entry leaves the pending listing")
	s.Equal("b@shop.example", pending[0].Email)
}

func (s *QueueSuite) TestRejectByEmail() {
	s.seed("a@cafe.example")

	decided, pending, err := s.queue.Reject(s.ctx, "A@Cafe.example")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, decided.Status)
	s.Empty(pending)
}

func (s *QueueSuite) TestDecisionIsTerminal() {
	app := s.seed("a@cafe.example")

	_, _, err := s.queue.Approve(s.ctx, app.ID)
	s.Require().NoError(err)

	_, _, err = s.queue.Reject(s.ctx, app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, _, err = s.queue.Approve(s.ctx, app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *QueueSuite) TestEmptyKeyFailsBeforeStore() {
	_, _, err := s.queue.Approve(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *QueueSuite) TestUnknownKey() {
	_, _, err := s.queue.Approve(s.ctx, "ghost@nowhere.example")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *QueueSuite) TestConcurrentDecisionFailsFast() {
	store := &gatedStore{
		InMemoryStore: application.NewInMemory(),
		findEntered:   make(chan struct{}),
		findRelease:   make(chan struct{}),
	}
	queue := NewQueue(store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	first := &models.Application{ID: uuid.NewString(), Email: "a@cafe.example", Status: models.StatusPending}
	second := &models.Application{ID: uuid.NewString(), Email: "b@shop.example", Status: models.StatusPending}
	s.Require().NoError(store.InMemoryStore.Create(s.ctx, first))
	s.Require().NoError(store.InMemoryStore.Create(s.ctx, second))

	done := make(chan error, 1)
	go func() {
		_, _, err := queue.Approve(s.ctx, first.ID)
		done <- err
	}()
	<-store.findEntered

	// A second decision on a different entry fails immediately rather than
	// waiting for the first to finish.
	_, _, err := queue.Reject(s.ctx, second.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeBusy))

	store.findRelease <- struct{}{}
	s.Require().NoError(<-done)

	// With the first decision complete, the queue accepts new ones.
	store.findEntered = nil
	_, _, err = queue.Reject(s.ctx, second.ID)
	s.Require().NoError(err)
}
