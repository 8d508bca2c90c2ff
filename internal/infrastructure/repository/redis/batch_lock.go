package redisrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lease taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisBatchLocker implements domain.BatchLocker with leased keys
// (SET NX PX). The lease bounds how long a crashed holder blocks a batch.
type RedisBatchLocker struct {
	client *redis.Client
}

func NewRedisBatchLocker(client *redis.Client) *RedisBatchLocker {
	return &RedisBatchLocker{client: client}
}

func (l *RedisBatchLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := lockKey(name)
	token := uuid.New().String()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		return nil
	}
	return release, true, nil
}

func lockKey(name string) string {
	return fmt.Sprintf("lock:batch:%s", name)
}
