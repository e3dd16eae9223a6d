package cache

import (
	"context"
	"sync"
	"time"

	"bonus-promotion-service/internal/basket"
)

// ProductCache caches qualifying-product lookups per promotion. A miss is
// not an error; callers fall through to the qualification query.
type ProductCache interface {
	Get(ctx context.Context, promotionID string) ([]basket.BonusProduct, bool)
	Set(ctx context.Context, promotionID string, products []basket.BonusProduct)
}

type memoryEntry struct {
	products  []basket.BonusProduct
	expiresAt time.Time
}

// MemoryProductCache is the in-process fallback used when redis is not
// configured. Entries expire lazily on read.
type MemoryProductCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryProductCache(ttl time.Duration) *MemoryProductCache {
	return &MemoryProductCache{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
	}
}

func (c *MemoryProductCache) Get(_ context.Context, promotionID string) ([]basket.BonusProduct, bool) {
	c.mu.RLock()
	e, ok := c.entries[promotionID]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return append([]basket.BonusProduct(nil), e.products...), true
}

func (c *MemoryProductCache) Set(_ context.Context, promotionID string, products []basket.BonusProduct) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[promotionID] = memoryEntry{
		products:  append([]basket.BonusProduct(nil), products...),
		expiresAt: time.Now().Add(c.ttl),
	}
}
