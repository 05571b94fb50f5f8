package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"honeypot-lab/internal/config"
	"honeypot-lab/pkg/logger"
)

// RedisCache wraps the Redis client and namespaces every key with a prefix
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Client returns the underlying Redis client
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

// Key prepends the namespace prefix to a key
func (c *RedisCache) Key(k string) string {
	return c.keyPrefix + k
}

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get reads a string value
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.Key(key)).Result()
}

// Delete removes keys and reports how many existed
func (c *RedisCache) Delete(ctx context.Context, keys ...string) (int64, error) {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.Key(k)
	}
	return c.client.Del(ctx, prefixedKeys...).Result()
}

// Watch runs fn in an optimistic transaction guarded by the given (unprefixed) keys
func (c *RedisCache) Watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.Key(k)
	}
	return c.client.Watch(ctx, fn, prefixedKeys...)
}

// Pipeline returns a Redis pipeline for batch operations
func (c *RedisCache) Pipeline() redis.Pipeliner {
	return c.client.Pipeline()
}

const (
	// Conversation documents
	KeyConversationPrefix = "conversation:"

	// Rate limiting keys
	KeyRateLimitPrefix = "rate_limit:"
)

// CheckRateLimit checks and increments the rate limit counter
// Returns (allowed, remaining, resetTime, error)
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	index, resetTime := rateLimitWindow(time.Now(), window)
	windowKey := c.Key(fmt.Sprintf("%s%s:%d", KeyRateLimitPrefix, key, index))

	pipe := c.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.ExpireAt(ctx, windowKey, resetTime)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit, remaining, resetTime, nil
}

// rateLimitWindow returns the index of the fixed window holding now and the
// time that window closes. Windows are aligned to the Unix epoch.
func rateLimitWindow(now time.Time, window time.Duration) (int64, time.Time) {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	index := now.Unix() / secs
	return index, time.Unix((index+1)*secs, 0)
}
