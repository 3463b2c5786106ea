package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ProductCache is a read-through cache of the position-relevant slice of
// product detail. Entries are immutable once written and invalidated
// wholesale by Purge.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*domain.CachedProduct, error)
	Put(ctx context.Context, productID int64, product *domain.CachedProduct) error
	Purge(ctx context.Context) error
}

const productCacheKey = "ke:product:cache"

type redisProductCache struct {
	redisClient *redis.Client
	key         string
}

func NewRedisProductCache(redisClient *redis.Client) ProductCache {
	return &redisProductCache{
		redisClient: redisClient,
		key:         productCacheKey,
	}
}

func (c *redisProductCache) Get(ctx context.Context, productID int64) (*domain.CachedProduct, error) {
	field := strconv.FormatInt(productID, 10)
	data, err := c.redisClient.HGet(ctx, c.key, field).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, fmt.Errorf("failed to read cached product %d: %w", productID, err)
	}

	var product domain.CachedProduct
	if err := gzipUnmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to decode cached product %d: %w", productID, err)
	}
	return &product, nil
}

func (c *redisProductCache) Put(ctx context.Context, productID int64, product *domain.CachedProduct) error {
	field := strconv.FormatInt(productID, 10)
	data, err := gzipMarshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product %d for cache: %w", productID, err)
	}
	if err := c.redisClient.HSet(ctx, c.key, field, data).Err(); err != nil {
		return fmt.Errorf("failed to cache product %d: %w", productID, err)
	}
	return nil
}

func (c *redisProductCache) Purge(ctx context.Context) error {
	if err := c.redisClient.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to purge product cache: %w", err)
	}
	return nil
}
