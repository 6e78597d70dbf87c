// Package reportcache memoizes report aggregate queries with a TTL.
//
// Values are JSON encoded regardless of backend so a hit returns exactly what the
// producing query returned. Concurrent misses for the same key each run compute;
// there is no single-flight coalescing, so a cold key under concurrent cycles
// may be queried more than once.
package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/metrics"
)

// Store is the byte-level backend behind the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every entry whose key starts with prefix (an exact key is its own prefix).
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type Params struct {
	Store   Store
	Logger  *logger.Logger
	Metrics *metrics.ReportMetrics
	TTL     time.Duration
}

// Cache is safe for concurrent use when its Store is.
type Cache struct {
	store   Store
	logg    *logger.Logger
	metrics *metrics.ReportMetrics
	ttl     time.Duration
}

const defaultTTL = time.Hour

func New(params Params) (*Cache, error) {
	if params.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		store:   params.Store,
		logg:    params.Logger,
		metrics: params.Metrics,
		ttl:     ttl,
	}, nil
}

// TTL is the default lifetime applied by callers that do not pick their own.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Remember returns the cached value under key or runs compute and stores its result for ttl.
// Backend failures degrade to calling compute; compute errors are never cached.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if ttl <= 0 {
		ttl = c.ttl
	}

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.warn(ctx, key, "report_cache.get_failed", err)
	}
	if ok {
		var cached T
		decodeErr := json.Unmarshal(raw, &cached)
		if decodeErr == nil {
			c.metrics.IncCacheLookup(metrics.CacheHit)
			return cached, nil
		}
		c.warn(ctx, key, "report_cache.decode_failed", decodeErr)
	}
	c.metrics.IncCacheLookup(metrics.CacheMiss)

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		c.warn(ctx, key, "report_cache.encode_failed", err)
		return value, nil
	}
	if err := c.store.Set(ctx, key, encoded, ttl); err != nil {
		c.warn(ctx, key, "report_cache.set_failed", err)
		return value, nil
	}

	var normalized T
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return value, nil
	}
	return normalized, nil
}

// Invalidate drops keyOrPrefix and every key that starts with it.
func (c *Cache) Invalidate(ctx context.Context, keyOrPrefix string) error {
	if keyOrPrefix == "" {
		return errors.New("invalidate requires a key or prefix")
	}
	removed, err := c.store.DeletePrefix(ctx, keyOrPrefix)
	if err != nil {
		return fmt.Errorf("invalidate %q: %w", keyOrPrefix, err)
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"cache_key": keyOrPrefix,
		"removed":   removed,
	})
	c.logg.Debug(logCtx, "report_cache.invalidated")
	return nil
}

// InvalidateAll runs Invalidate for each key, returning the first failure after trying them all.
func (c *Cache) InvalidateAll(ctx context.Context, keys ...string) error {
	var first error
	for _, key := range keys {
		if err := c.Invalidate(ctx, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Cache) warn(ctx context.Context, key, msg string, err error) {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"cache_key": key,
		"error":     err.Error(),
	})
	c.logg.Warn(logCtx, msg)
}
