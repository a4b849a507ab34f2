package cache

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

type memoryEntry struct {
	result    domain.PriorityResult
	expiresAt time.Time
}

// MemoryResultCache is an in-process domain.ResultCache used when Redis is not configured.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryResultCache creates an empty in-process cache.
func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryResultCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryResultCache) Get(_ context.Context, requestID string) (*domain.PriorityResult, error) {
	c.mu.RLock()
	entry, ok := c.entries[requestID]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	result := entry.result
	return &result, nil
}

func (c *MemoryResultCache) Set(_ context.Context, result domain.PriorityResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.RequestID] = memoryEntry{result: result, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryResultCache) Delete(_ context.Context, requestID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, requestID)
	return nil
}
