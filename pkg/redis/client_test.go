package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/devsergyo/sales-commissions/pkg/config"
)

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	count, err := client.IncrWithTTL(ctx, "sc:attempts:mailer:task-1", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Len(t, mock.expireCalls, 1)
	require.Equal(t, time.Hour, mock.expireCalls[0].ttl)

	count, err = client.IncrWithTTL(ctx, "sc:attempts:mailer:task-1", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Len(t, mock.expireCalls, 1, "expire should not be set again")
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	require.ErrorIs(t, err, Nil)
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "lock", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, "lock", "owner-b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeletePrefixWalksAllPages(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.pageSize = 2
	client := &Client{store: mock}

	for _, key := range []string{
		"sc:cache:reports:sales:date:2024-01-15",
		"sc:cache:reports:sales:seller:1:date:2024-01-15",
		"sc:cache:reports:sales:seller:2:date:2024-01-15",
		"sc:cache:reports:sellers:all",
	} {
		require.NoError(t, client.Set(ctx, key, "x", 0))
	}

	removed, err := client.DeletePrefix(ctx, "sc:cache:reports:sales:")
	require.NoError(t, err)
	require.EqualValues(t, 3, removed)

	_, err = client.Get(ctx, "sc:cache:reports:sellers:all")
	require.NoError(t, err)
	require.Len(t, mock.data, 1)
}

func TestOwnerCheckedMutations(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	require.NoError(t, client.Set(ctx, "sc:cron-worker:lock:prod", "owner-a", time.Minute))

	ok, err := client.ExpireIfValue(ctx, "sc:cron-worker:lock:prod", "owner-b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = client.ExpireIfValue(ctx, "sc:cron-worker:lock:prod", "owner-a", 90*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 90*time.Second, mock.expireCalls[len(mock.expireCalls)-1].ttl)

	ok, err = client.DeleteIfValue(ctx, "sc:cron-worker:lock:prod", "owner-b")
	require.NoError(t, err)
	require.False(t, ok)
	require.Contains(t, mock.data, "sc:cron-worker:lock:prod")

	ok, err = client.DeleteIfValue(ctx, "sc:cron-worker:lock:prod", "owner-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotContains(t, mock.data, "sc:cron-worker:lock:prod")
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()

	require.Error(t, client.Ping(ctx))
	require.Error(t, client.Set(ctx, "k", "v", 0))
	_, err := client.DeletePrefix(ctx, "sc:")
	require.Error(t, err)
	_, err = client.DeleteIfValue(ctx, "k", "v")
	require.ErrorIs(t, err, errUninitialized)
	_, err = client.IncrWithTTL(ctx, "k", time.Minute)
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "sc:idempotency:mailer:id", client.IdempotencyKey("mailer", "id"))
	require.Equal(t, "sc:attempts:mailer:task-1", client.AttemptKey("mailer", "task-1"))
	require.Equal(t, "sc:cache:reports:sellers:all", client.CacheKey("reports:sellers:all"))
	require.Equal(t, "sc:cron-worker:lock:prod", client.LockKey("cron-worker", "prod"))
	require.Equal(t, "sc:cache", client.CacheKey(""))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6380", DB: 3})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 3, opts.DB)
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	pageSize    int
	snapshot    []string
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		incr:     make(map[string]int64),
		pageSize: 100,
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			removed++
		}
		delete(m.data, key)
	}
	return redis.NewIntResult(removed, nil)
}

// Eval understands the two owner-checked scripts the client issues.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key, want := keys[0], fmt.Sprint(args[0])
	if m.data[key] != want {
		return redis.NewCmdResult(int64(0), nil)
	}
	switch script {
	case deleteIfValueScript:
		delete(m.data, key)
	case expireIfValueScript:
		m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: time.Duration(args[1].(int64)) * time.Millisecond})
	default:
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
	}
	return redis.NewCmdResult(int64(1), nil)
}

// Scan pages through a sorted snapshot taken on the first call; the cursor is an offset.
func (m *mockCmdable) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if cursor == 0 {
		prefix := strings.TrimSuffix(match, "*")
		m.snapshot = m.snapshot[:0]
		for key := range m.data {
			if strings.HasPrefix(key, prefix) {
				m.snapshot = append(m.snapshot, key)
			}
		}
		sort.Strings(m.snapshot)
	}

	start := int(cursor)
	if start > len(m.snapshot) {
		start = len(m.snapshot)
	}
	end := start + m.pageSize
	if end > len(m.snapshot) {
		end = len(m.snapshot)
	}
	var next uint64
	if end < len(m.snapshot) {
		next = uint64(end)
	}
	return redis.NewScanCmdResult(append([]string(nil), m.snapshot[start:end]...), next, nil)
}
