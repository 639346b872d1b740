// Package redis provides a thin wrapper around go-redis/v9 with connection
// pooling, cache get/set/delete operations, and pattern-based key invalidation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/resilience"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies the connection with a PING,
// retrying with backoff while ctx allows.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	err := resilience.Retry(ctx, "redis-ping", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// ErrMiss is returned by GetStrings when the key does not exist.
var ErrMiss = redis.Nil

// GetStrings loads a JSON-encoded string slice stored under key.
func (c *Client) GetStrings(ctx context.Context, key string) ([]string, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return values, nil
}

// SetStrings stores values JSON-encoded under key with the given TTL.
func (c *Client) SetStrings(ctx context.Context, key string, values []string, ttl time.Duration) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// FlushByPattern scans for keys matching the glob pattern and deletes them,
// returning the number of keys removed.
func (c *Client) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("deleting key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	return deleted, nil
}

// IsNilError reports whether err is a Redis nil (key-not-found) error.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
