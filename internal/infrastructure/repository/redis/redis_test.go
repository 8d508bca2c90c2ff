package redisrepository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestProductCache_RoundTripAndMiss(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewRedisProductCache(client, time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "p-1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	product := &domain.Product{
		ID:          "p-1",
		Name:        "Quick Loan",
		TenureType:  domain.TenureMonths,
		TenureValue: 3,
		Fees: []*domain.Fee{{
			ID:              "f-1",
			Type:            domain.FeeTypeService,
			CalculationType: domain.CalculationPercentage,
			Value:           decimal.RequireFromString("0.025"),
		}},
	}
	require.NoError(t, cache.Set(ctx, product))

	got, err := cache.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Quick Loan", got.Name)
	require.Len(t, got.Fees, 1)
	assert.True(t, got.Fees[0].Value.Equal(decimal.RequireFromString("0.025")))

	require.NoError(t, cache.Delete(ctx, "p-1"))
	_, err = cache.Get(ctx, "p-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCustomerCache_Expires(t *testing.T) {
	server, client := newTestClient(t)
	cache := NewRedisCustomerCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Customer{ID: "c-1", Phone: "254700000001"}))
	server.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "c-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestPaymentCache_KeyedByCode(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewRedisPaymentCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Payment{ID: "pay-1", LoanID: "l-1", PaymentCode: "MPESA-1", Amount: decimal.NewFromInt(310)}))

	got, err := cache.Get(ctx, "MPESA-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(310)))
}

func TestBatchLocker_ExclusiveUntilReleased(t *testing.T) {
	_, client := newTestClient(t)
	locker := NewRedisBatchLocker(client)
	ctx := context.Background()

	release, acquired, err := locker.TryLock(ctx, "mark-overdue", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, again, err := locker.TryLock(ctx, "mark-overdue", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	_, other, err := locker.TryLock(ctx, "apply-late-fees", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, release(ctx))

	_, reacquired, err := locker.TryLock(ctx, "mark-overdue", time.Minute)
	require.NoError(t, err)
	assert.True(t, reacquired)
}

func TestBatchLocker_ReleaseKeepsForeignLease(t *testing.T) {
	server, client := newTestClient(t)
	locker := NewRedisBatchLocker(client)
	ctx := context.Background()

	staleRelease, _, err := locker.TryLock(ctx, "mark-defaulted", time.Second)
	require.NoError(t, err)
	server.FastForward(2 * time.Second)

	_, acquired, err := locker.TryLock(ctx, "mark-defaulted", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, staleRelease(ctx))
	assert.True(t, server.Exists(lockKey("mark-defaulted")))
}
