// internal/common/cache/redis.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nurlan6812/food-agent/internal/common/config"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
)

// Cache stores raw provider payloads keyed by namespace and request key.
type Cache interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
}

// NewRedisClient creates the go-redis client for cfg.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// RedisCache is a Cache backed by Redis string keys with a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Key derives the Redis key. Request keys are hashed since they carry free text.
func (c *RedisCache) Key(namespace, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%s:%s", c.prefix, namespace, hex.EncodeToString(sum[:12]))
}

func (c *RedisCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.Key(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := c.client.Set(ctx, c.Key(namespace, key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, string, []byte) error         { return nil }

// Logger is the subset of the logger used here.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// Fetch returns the cached payload for key or calls load and stores its result.
// Cache failures are logged and never fail the call.
func Fetch(ctx context.Context, c Cache, log Logger, namespace, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}

	if data, ok, err := c.Get(ctx, namespace, key); err != nil {
		log.Warn("cache read failed", map[string]interface{}{"namespace": namespace, "error": err.Error()})
	} else if ok {
		return data, nil
	}

	data, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, namespace, key, data); err != nil {
		log.Warn("cache write failed", map[string]interface{}{"namespace": namespace, "error": err.Error()})
	}
	return data, nil
}
