package cache

import (
	"testing"

	"github.com/erp/messaging/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadCacheFactory_CreateCache(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory backend", func(t *testing.T) {
		f := NewThreadCacheFactory(unreachable, config.CacheConfig{Backend: BackendMemory})
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryThreadCache{}, c)
	})

	t.Run("redis backend falls back when unreachable", func(t *testing.T) {
		f := NewThreadCacheFactory(unreachable, config.CacheConfig{Backend: BackendRedis})
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryThreadCache{}, c)
	})

	t.Run("redis backend without fallback fails", func(t *testing.T) {
		f := NewThreadCacheFactory(unreachable, config.CacheConfig{Backend: BackendRedis}, WithInMemoryFallback(false))
		_, err := f.CreateCache()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
