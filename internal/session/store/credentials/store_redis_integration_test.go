//go:build integration

package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civicportal/internal/session/models"
	"civicportal/pkg/platform/sentinel"
	"civicportal/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedis(s.redis.Client, 0)
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreIntegrationSuite) TestSaveLoadRoundTrip() {
	session := &models.Session{
		Kind:        models.KindPartner,
		Email:       "owner@cafe.example",
		DisplayName: "Sam",
		IssuedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.Save(s.ctx, session))

	loaded, err := s.store.Load(s.ctx, models.KindPartner)
	s.Require().NoError(err)
	s.Equal(session.Email, loaded.Email)
	s.Equal(session.DisplayName, loaded.DisplayName)
	s.True(session.IssuedAt.Equal(loaded.IssuedAt))
}

func (s *RedisStoreIntegrationSuite) TestKindsAreIndependent() {
	s.Require().NoError(s.store.Save(s.ctx, &models.Session{Kind: models.KindPartner, Email: "owner@cafe.example"}))
	s.Require().NoError(s.store.Save(s.ctx, &models.Session{Kind: models.KindAdministrator, Email: "mod@portal.example", Token: "jwt"}))

	s.Require().NoError(s.store.Delete(s.ctx, models.KindPartner))

	_, err := s.store.Load(s.ctx, models.KindPartner)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	admin, err := s.store.Load(s.ctx, models.KindAdministrator)
	s.Require().NoError(err)
	s.Equal("jwt", admin.Token)
}

func (s *RedisStoreIntegrationSuite) TestLoadMissing() {
	_, err := s.store.Load(s.ctx, models.KindPartner)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreIntegrationSuite) TestTTLExpiry() {
	short := NewRedis(s.redis.Client, time.Second)
	s.Require().NoError(short.Save(s.ctx, &models.Session{Kind: models.KindPartner, Email: "owner@cafe.example"}))

	s.Eventually(func() bool {
		_, err := short.Load(s.ctx, models.KindPartner)
		return err != nil
	}, 5*time.Second, 200*time.Millisecond)
}
