package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/erp/messaging/internal/domain/mail"
)

type entry struct {
	ids       []int64
	expiresAt time.Time
}

// InMemoryThreadCache implements ThreadCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryThreadCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryThreadCache creates a new in-memory thread cache.
// It starts a background goroutine to clean up expired entries; a zero ttl
// keeps entries until they are invalidated.
func NewInMemoryThreadCache(ttl time.Duration) *InMemoryThreadCache {
	c := &InMemoryThreadCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns a copy of the cached message ids of a document
func (c *InMemoryThreadCache) Get(_ context.Context, ref mail.DocumentRef) ([]int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[threadKey("", ref)]
	if !ok || c.expired(e, time.Now()) {
		return nil, false, nil
	}
	return slices.Clone(e.ids), true, nil
}

// Set stores a copy of the message ids of a document
func (c *InMemoryThreadCache) Set(_ context.Context, ref mail.DocumentRef, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{ids: slices.Clone(ids)}
	if e.ids == nil {
		e.ids = []int64{}
	}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[threadKey("", ref)] = e
	return nil
}

// Invalidate drops the cached ids of the given documents
func (c *InMemoryThreadCache) Invalidate(_ context.Context, refs ...mail.DocumentRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ref := range refs {
		delete(c.entries, threadKey("", ref))
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryThreadCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryThreadCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryThreadCache) expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryThreadCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryThreadCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
		}
	}
}

// Ensure InMemoryThreadCache implements ThreadCache
var _ mail.ThreadCache = (*InMemoryThreadCache)(nil)
