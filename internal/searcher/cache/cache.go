// Package cache memoises evaluated boolean programs in Redis. Entries are
// keyed by the index fingerprint and the canonical postfix program, so a
// rebuilt index never serves stale postings.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/redis"
)

const keyPrefix = "boolean:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	GetStrings(ctx context.Context, key string) ([]string, error)
	SetStrings(ctx context.Context, key string, values []string, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    cfg.CacheTTL,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) WithMetrics(m *metrics.Metrics) *QueryCache {
	c.metrics = m
	return c
}

// Get returns the cached postings for program. Redis failures are logged and
// reported as a miss.
func (c *QueryCache) Get(ctx context.Context, fingerprint, program string) (index.PostingList, bool) {
	key := buildKey(fingerprint, program)
	docs, err := c.store.GetStrings(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	if docs == nil {
		docs = []string{}
	}
	c.recordHit()
	c.logger.Debug("cache hit", "program", program, "key", key)
	return index.PostingList(docs), true
}

func (c *QueryCache) Set(ctx context.Context, fingerprint, program string, docs index.PostingList) {
	key := buildKey(fingerprint, program)
	if err := c.store.SetStrings(ctx, key, docs, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves program from the cache, or evaluates it once per key
// even when several callers miss concurrently.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	fingerprint, program string,
	compute func() (index.PostingList, error),
) (index.PostingList, bool, error) {
	if docs, ok := c.Get(ctx, fingerprint, program); ok {
		return docs, true, nil
	}
	key := buildKey(fingerprint, program)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		docs, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, fingerprint, program, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(index.PostingList), false, nil
}

// Invalidate drops every cached program and returns how many keys went.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func buildKey(fingerprint, program string) string {
	hash := sha256.Sum256([]byte(fingerprint + "|" + program))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
