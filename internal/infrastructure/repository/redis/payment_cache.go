package redisrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// RedisPaymentCache maps payment codes to stored payments. It is only filled
// from committed rows, so a hit always means the code was used.
type RedisPaymentCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisPaymentCache(client *redis.Client, cacheTTL time.Duration) *RedisPaymentCache {
	return &RedisPaymentCache{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

func (r *RedisPaymentCache) Get(ctx context.Context, code string) (*domain.Payment, error) {
	var payment domain.Payment
	if err := getJSON(ctx, r.client, paymentKey(code), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *RedisPaymentCache) Set(ctx context.Context, payment *domain.Payment) error {
	return setJSON(ctx, r.client, paymentKey(payment.PaymentCode), payment, r.cacheTTL)
}

func paymentKey(code string) string {
	return fmt.Sprintf("payment:code:%s", code)
}
