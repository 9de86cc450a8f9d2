package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/config"
	"github.com/redis/go-redis/v9"
)

// Cache is a cache.Cache backed by Redis, shared by every server instance
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

var _ cache.Cache = (*Cache)(nil)

// NewCache connects to Redis and returns a cache with the given TTL
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return newCache(client, ttl, cfg.KeyPrefix, logger), nil
}

func newCache(client *redis.Client, ttl time.Duration, prefix string, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// entryKey returns the Redis key for a cache key
func (c *Cache) entryKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get returns the payload stored under key. Redis expires entries itself.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cache entry: %w", err)
	}
	return data, true, nil
}

// Set stores value under key with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.entryKey(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting cache entry: %w", err)
	}
	return nil
}

// Invalidate deletes key
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.entryKey(key)).Err(); err != nil {
		return fmt.Errorf("invalidating cache entry: %w", err)
	}
	c.logger.Debug("cache entry invalidated", "key", key)
	return nil
}
