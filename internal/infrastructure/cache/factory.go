package cache

import (
	"fmt"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Supported thread cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ThreadCacheFactory creates thread caches based on configuration
type ThreadCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           config.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ThreadCacheFactoryOption is a functional option for configuring the factory
type ThreadCacheFactoryOption func(*ThreadCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ThreadCacheFactoryOption {
	return func(f *ThreadCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) ThreadCacheFactoryOption {
	return func(f *ThreadCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewThreadCacheFactory creates a new factory
func NewThreadCacheFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...ThreadCacheFactoryOption) *ThreadCacheFactory {
	f := &ThreadCacheFactory{
		redisConfig:           redisCfg,
		cacheConfig:           cacheCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based thread cache
func (f *ThreadCacheFactory) CreateRedisCache() (mail.ThreadCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisThreadCache(redisCfg, f.cacheConfig.KeyPrefix, f.cacheConfig.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis thread cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory thread cache.
// WARNING: in-memory caches are not invalidated by writes served by other
// process instances.
func (f *ThreadCacheFactory) CreateInMemoryCache() mail.ThreadCache {
	return NewInMemoryThreadCache(f.cacheConfig.TTL)
}

// CreateCache creates the configured cache. A redis backend falls back to
// in-memory when Redis is unreachable and fallback is allowed.
func (f *ThreadCacheFactory) CreateCache() (mail.ThreadCache, error) {
	if f.cacheConfig.Backend != BackendRedis {
		f.logger.Info("using in-memory thread cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis thread cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for thread cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory thread cache. "+
		"Other instances' writes will not invalidate this cache.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
