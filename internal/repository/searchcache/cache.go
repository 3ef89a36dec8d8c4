// Package searchcache decorates a search backend with a TTL'd
// query-result cache in a key-value store.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/db"
	"github.com/staycurrentmd/videolib/internal/domain/search"
)

const cacheKeyPrefix = "videolib:search_cache:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Backend is the decorated search backend.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) ([]search.Hit, error)
}

// CachedBackend caches backend result sets keyed by query.
type CachedBackend struct {
	inner      Backend
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(inner Backend, s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *CachedBackend {
	return &CachedBackend{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Name reports the inner backend's engine tag; caching is invisible to
// response shape.
func (c *CachedBackend) Name() string { return c.inner.Name() }

// Search returns a cached result set or calls the inner backend. Backend
// errors are never cached.
func (c *CachedBackend) Search(ctx context.Context, query string) ([]search.Hit, error) {
	key := c.cacheKey(query)

	if hits, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return hits, nil
	}

	c.incCache("miss")

	hits, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	c.putToCache(ctx, key, hits)
	return hits, nil
}

func (c *CachedBackend) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedBackend) cacheKey(query string) string {
	h := sha256.Sum256([]byte(c.inner.Name() + ":" + query))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedBackend) getFromCache(ctx context.Context, key string) ([]search.Hit, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search result", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var hits []search.Hit
	if err := json.Unmarshal(data, &hits); err != nil {
		c.logger.Warn("Failed to decode cached search result", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return hits, true
}

func (c *CachedBackend) putToCache(ctx context.Context, key string, hits []search.Hit) {
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Warn("Failed to encode search result for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search result", zap.String("key", key), zap.Error(err))
	}
}
