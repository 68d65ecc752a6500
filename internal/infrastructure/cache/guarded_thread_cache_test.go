package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCacheDown = errors.New("cache down")

// flakyThreadCache fails deletes while down is set
type flakyThreadCache struct {
	*InMemoryThreadCache
	down bool
}

func (c *flakyThreadCache) Invalidate(ctx context.Context, refs ...mail.DocumentRef) error {
	if c.down {
		return errCacheDown
	}
	return c.InMemoryThreadCache.Invalidate(ctx, refs...)
}

func TestGuardedThreadCache(t *testing.T) {
	ctx := context.Background()

	newCache := func(t *testing.T) (*GuardedThreadCache, *flakyThreadCache) {
		inner := &flakyThreadCache{InMemoryThreadCache: NewInMemoryThreadCache(0)}
		t.Cleanup(func() { _ = inner.Close() })
		return NewGuardedThreadCache(inner), inner
	}

	t.Run("passes through while invalidation works", func(t *testing.T) {
		c, _ := newCache(t)

		require.NoError(t, c.Set(ctx, pigs, []int64{1}))
		ids, ok, err := c.Get(ctx, pigs)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []int64{1}, ids)

		require.NoError(t, c.Invalidate(ctx, pigs))
		_, ok, _ = c.Get(ctx, pigs)
		assert.False(t, ok)
		assert.Zero(t, c.Stale())
	})

	t.Run("failed invalidation never serves the old ids", func(t *testing.T) {
		c, inner := newCache(t)
		require.NoError(t, c.Set(ctx, pigs, []int64{1}))

		inner.down = true
		require.ErrorIs(t, c.Invalidate(ctx, pigs), errCacheDown)
		assert.Equal(t, 1, c.Stale())

		_, ok, err := c.Get(ctx, pigs)
		require.ErrorIs(t, err, errCacheDown)
		assert.False(t, ok)

		require.NoError(t, c.Set(ctx, pigs, []int64{2, 1}))
		_, ok, _ = inner.InMemoryThreadCache.Get(ctx, pigs)
		assert.True(t, ok, "old entry still sits in the backend")
		ids, _, _ := inner.InMemoryThreadCache.Get(ctx, pigs)
		assert.Equal(t, []int64{1}, ids, "set is skipped while stale")
	})

	t.Run("next lookup after recovery drops the key", func(t *testing.T) {
		c, inner := newCache(t)
		require.NoError(t, c.Set(ctx, pigs, []int64{1}))

		inner.down = true
		require.Error(t, c.Invalidate(ctx, pigs))
		inner.down = false

		_, ok, err := c.Get(ctx, pigs)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, c.Stale())
		assert.Zero(t, inner.Size())

		require.NoError(t, c.Set(ctx, pigs, []int64{2, 1}))
		ids, ok, _ := c.Get(ctx, pigs)
		assert.True(t, ok)
		assert.Equal(t, []int64{2, 1}, ids)
	})

	t.Run("other documents are unaffected", func(t *testing.T) {
		c, inner := newCache(t)
		other := mail.DocumentRef{Model: mail.ChannelModel, ResID: 2}
		require.NoError(t, c.Set(ctx, other, []int64{5}))

		inner.down = true
		require.Error(t, c.Invalidate(ctx, pigs))

		ids, ok, err := c.Get(ctx, other)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []int64{5}, ids)
	})
}
