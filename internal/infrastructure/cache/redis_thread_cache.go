package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/redis/go-redis/v9"
)

// RedisThreadCache implements ThreadCache using Redis.
// This is suitable for deployments where several instances serve the same
// documents and must see each other's invalidations.
type RedisThreadCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisThreadCache connects to Redis and creates the cache
func NewRedisThreadCache(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisThreadCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisThreadCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisThreadCacheWithClient creates a cache with an existing Redis client
func NewRedisThreadCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisThreadCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisThreadCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached message ids of a document
func (c *RedisThreadCache) Get(ctx context.Context, ref mail.DocumentRef) ([]int64, bool, error) {
	raw, err := c.client.Get(ctx, threadKey(c.keyPrefix, ref)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read thread cache: %w", err)
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		// a corrupt entry is a miss; the next Set overwrites it
		return nil, false, nil
	}
	return ids, true, nil
}

// Set stores the message ids of a document
func (c *RedisThreadCache) Set(ctx context.Context, ref mail.DocumentRef, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, threadKey(c.keyPrefix, ref), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write thread cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached ids of the given documents
func (c *RedisThreadCache) Invalidate(ctx context.Context, refs ...mail.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = threadKey(c.keyPrefix, ref)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate thread cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisThreadCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisThreadCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisThreadCache implements ThreadCache
var _ mail.ThreadCache = (*RedisThreadCache)(nil)
