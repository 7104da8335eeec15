package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/langowen/posratio/internal/entities"
)

type entry struct {
	ratios    []entities.PosRatio
	expiresAt time.Time
}

// Cache is an in-process TTL cache. It hands out copies so callers cannot
// mutate a cached catalog.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]entities.PosRatio, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		return nil, false, nil
	}

	return slices.Clone(e.ratios), true, nil
}

func (c *Cache) Set(_ context.Context, key string, ratios []entities.PosRatio, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		ratios:    slices.Clone(ratios),
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}
