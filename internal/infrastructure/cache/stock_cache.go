package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	appinv "github.com/erp/stockcore/internal/application/inventory"
	"github.com/erp/stockcore/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisStockCache implements the read-through stock level cache on Redis.
// Suitable for distributed deployments where multiple instances serve stock
// reads against the same ledger.
type RedisStockCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStockCache creates a cache backed by a new Redis connection
func NewRedisStockCache(cfg config.RedisConfig, keyPrefix string, ttl time.Duration) (*RedisStockCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStockCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisStockCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisStockCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStockCache {
	if keyPrefix == "" {
		keyPrefix = "stock"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStockCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached level, or false if absent
func (c *RedisStockCache) Get(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, c.key(productID, branchID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read stock cache: %w", err)
	}
	level, err := decimal.NewFromString(raw)
	if err != nil {
		// Corrupt entry: treat as a miss so the ledger repopulates it
		return decimal.Zero, false, nil
	}
	return level, true, nil
}

// Set stores the level computed from the ledger
func (c *RedisStockCache) Set(ctx context.Context, productID, branchID uuid.UUID, level decimal.Decimal) error {
	if err := c.client.Set(ctx, c.key(productID, branchID), level.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write stock cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached level
func (c *RedisStockCache) Invalidate(ctx context.Context, productID, branchID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(productID, branchID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stock cache: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockCache) key(productID, branchID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", c.keyPrefix, productID, branchID)
}

var _ appinv.StockCache = (*RedisStockCache)(nil)
