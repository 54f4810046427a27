package cache

import (
	"context"
	"sync"
	"time"

	appinv "github.com/erp/stockcore/internal/application/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InMemoryStockCache is a process-local stock level cache. Suitable for
// single-instance deployments and tests; distributed deployments should use
// RedisStockCache so invalidations reach every instance.
type InMemoryStockCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
}

type cacheKey struct {
	productID uuid.UUID
	branchID  uuid.UUID
}

type cacheEntry struct {
	level     decimal.Decimal
	expiresAt time.Time
}

// NewInMemoryStockCache creates an in-memory stock cache
func NewInMemoryStockCache(ttl time.Duration) *InMemoryStockCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryStockCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached level, or false if absent or expired
func (c *InMemoryStockCache) Get(_ context.Context, productID, branchID uuid.UUID) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey{productID, branchID}]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return decimal.Zero, false, nil
	}
	return entry.level, true, nil
}

// Set stores the level computed from the ledger
func (c *InMemoryStockCache) Set(_ context.Context, productID, branchID uuid.UUID, level decimal.Decimal) error {
	c.mu.Lock()
	c.entries[cacheKey{productID, branchID}] = cacheEntry{
		level:     level,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

// Invalidate drops the cached level
func (c *InMemoryStockCache) Invalidate(_ context.Context, productID, branchID uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, cacheKey{productID, branchID})
	c.mu.Unlock()
	return nil
}

var _ appinv.StockCache = (*InMemoryStockCache)(nil)
