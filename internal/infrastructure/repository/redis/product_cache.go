package redisrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// RedisProductCache keeps products with their attached fees. Attaching a
// fee must delete the entry.
type RedisProductCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisProductCache(client *redis.Client, cacheTTL time.Duration) *RedisProductCache {
	return &RedisProductCache{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

func (r *RedisProductCache) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	if err := getJSON(ctx, r.client, productKey(productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *RedisProductCache) Set(ctx context.Context, product *domain.Product) error {
	return setJSON(ctx, r.client, productKey(product.ID), product, r.cacheTTL)
}

func (r *RedisProductCache) Delete(ctx context.Context, productID string) error {
	if err := r.client.Del(ctx, productKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func productKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}
