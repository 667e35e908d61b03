package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"civicportal/internal/session/models"
	"civicportal/pkg/platform/sentinel"
)

const keyPrefix = "portal:session:"

// RedisStore persists credentials in Redis so a restart does not force
// re-authentication.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed credential store. A zero TTL means
// sessions only expire via logout.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, kind models.Kind) (*models.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+string(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+string(session.Kind), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, kind models.Kind) error {
	if err := s.client.Del(ctx, keyPrefix+string(kind)).Err(); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
