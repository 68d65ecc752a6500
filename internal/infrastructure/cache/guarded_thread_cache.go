package cache

import (
	"context"
	"sync"

	"github.com/erp/messaging/internal/domain/mail"
)

// GuardedThreadCache wraps a ThreadCache and remembers the documents whose
// invalidation failed. Until a later delete of their key succeeds, those
// documents always miss and are never stored, so a failed invalidation
// cannot keep stale ids alive until the TTL.
type GuardedThreadCache struct {
	mail.ThreadCache

	mu    sync.Mutex
	stale map[mail.DocumentRef]struct{}
}

// NewGuardedThreadCache wraps inner
func NewGuardedThreadCache(inner mail.ThreadCache) *GuardedThreadCache {
	return &GuardedThreadCache{
		ThreadCache: inner,
		stale:       make(map[mail.DocumentRef]struct{}),
	}
}

// Get misses for stale documents and retries their invalidation
func (c *GuardedThreadCache) Get(ctx context.Context, ref mail.DocumentRef) ([]int64, bool, error) {
	if c.isStale(ref) {
		if err := c.ThreadCache.Invalidate(ctx, ref); err != nil {
			return nil, false, err
		}
		c.clear(ref)
		return nil, false, nil
	}
	return c.ThreadCache.Get(ctx, ref)
}

// Set is a no-op for stale documents
func (c *GuardedThreadCache) Set(ctx context.Context, ref mail.DocumentRef, ids []int64) error {
	if c.isStale(ref) {
		return nil
	}
	return c.ThreadCache.Set(ctx, ref, ids)
}

// Invalidate marks every ref stale before deleting, and clears the marks
// only once the delete succeeded.
func (c *GuardedThreadCache) Invalidate(ctx context.Context, refs ...mail.DocumentRef) error {
	c.mark(refs)
	if err := c.ThreadCache.Invalidate(ctx, refs...); err != nil {
		return err
	}
	c.clear(refs...)
	return nil
}

// Stale reports how many documents are waiting for a successful invalidation
func (c *GuardedThreadCache) Stale() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stale)
}

func (c *GuardedThreadCache) isStale(ref mail.DocumentRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stale[ref]
	return ok
}

func (c *GuardedThreadCache) mark(refs []mail.DocumentRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		c.stale[ref] = struct{}{}
	}
}

func (c *GuardedThreadCache) clear(refs ...mail.DocumentRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		delete(c.stale, ref)
	}
}

var _ mail.ThreadCache = (*GuardedThreadCache)(nil)
