package redisrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss means the key is absent; callers fall back to the store.
var ErrCacheMiss = errors.New("cache miss")

// RedisCustomerCache keeps customers as JSON under customer:{id}.
type RedisCustomerCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisCustomerCache(client *redis.Client, cacheTTL time.Duration) *RedisCustomerCache {
	return &RedisCustomerCache{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

func (r *RedisCustomerCache) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := getJSON(ctx, r.client, customerKey(customerID), &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *RedisCustomerCache) Set(ctx context.Context, customer *domain.Customer) error {
	return setJSON(ctx, r.client, customerKey(customer.ID), customer, r.cacheTTL)
}

func (r *RedisCustomerCache) Delete(ctx context.Context, customerID string) error {
	if err := r.client.Del(ctx, customerKey(customerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func customerKey(customerID string) string {
	return fmt.Sprintf("customer:%s", customerID)
}

func getJSON(ctx context.Context, client *redis.Client, key string, dst interface{}) error {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
