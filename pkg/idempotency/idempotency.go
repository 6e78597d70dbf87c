package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devsergyo/sales-commissions/pkg/redis"
)

// Store is the Redis surface the guard needs.
type Store interface {
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

var _ Store = (*redis.Client)(nil)

// Manager records handled task IDs per consumer with SETNX and a TTL.
// Keys follow `sc:idempotency:task:handled:<consumer>:<task_id>`.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Claim marks taskID as handled by consumer. It reports false when another
// delivery already claimed it.
func (m *Manager) Claim(ctx context.Context, consumer string, taskID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, taskID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

// Release drops a claim so a redelivery can retry the task.
func (m *Manager) Release(ctx context.Context, consumer string, taskID uuid.UUID) error {
	key, err := m.key(consumer, taskID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer string, taskID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if taskID == uuid.Nil {
		return "", errors.New("task id is required")
	}
	return m.store.IdempotencyKey(fmt.Sprintf("task:handled:%s", consumer), taskID.String()), nil
}
