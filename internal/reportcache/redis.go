package reportcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devsergyo/sales-commissions/pkg/redis"
)

type redisBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	CacheKey(key string) string
}

// RedisStore shares cached aggregates between api, cron and cli processes.
type RedisStore struct {
	client redisBackend
}

func NewRedisStore(client redisBackend) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.client.CacheKey(key))
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return []byte(value), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.client.CacheKey(key), value, ttl); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	return s.client.DeletePrefix(ctx, s.client.CacheKey(prefix))
}
