// internal/common/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"ticket-scout/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// ResultCache is a short-TTL read-through cache for resolved lookups. It is
// an optimization only: every failure path degrades to a fresh lookup.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed result cache.
func New(cfg config.RedisConfig) (*ResultCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &ResultCache{client: rdb, ttl: config.GetDuration(cfg.TTL)}, nil
}

// NewWithClient wraps an existing client; used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Ping tests the Redis connection
func (c *ResultCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *ResultCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Key derives the cache key for one source lookup. Criteria values are
// hashed so license numbers never appear in Redis keyspace listings.
func Key(source, licenseNumber, state string) string {
	sum := sha256.Sum256([]byte(licenseNumber + "|" + state))
	return fmt.Sprintf("lookup:%s:%s", source, hex.EncodeToString(sum[:16]))
}

// Get retrieves a cached value into dest, reporting whether a hit occurred.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value under the cache TTL.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Del deletes one or more keys
func (c *ResultCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}
