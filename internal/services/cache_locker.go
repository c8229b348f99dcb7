package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"fittrack/pkg/cache"
)

// redisLocker adapts the redis distributed lock to the Locker seam used by
// the services.
type redisLocker struct {
	cache         *cache.RedisCache
	ttl           time.Duration
	retryInterval time.Duration
}

func NewRedisLocker(c *cache.RedisCache, ttl, retryInterval time.Duration) Locker {
	return &redisLocker{
		cache:         c,
		ttl:           ttl,
		retryInterval: retryInterval,
	}
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	lock, err := l.cache.AcquireLockWait(ctx, key, l.ttl, l.retryInterval)
	if err != nil {
		return err
	}
	defer lock.Release(context.WithoutCancel(ctx))

	return fn()
}

func isCacheMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
