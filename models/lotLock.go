package models

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/mandi_backend/config"
)

// WithLotLock serializes bag mutations on one lot across instances.
//
// The redis lock is a best-effort optimization: correctness never depends
// on it. Every bag decrement/increment is a conditional UPDATE against the
// stored count, so two racing requests cannot drive remaining_bags out of
// range even when the lock is unavailable.
func WithLotLock(ctx context.Context, businessId string, lotID int, fn func() error) error {
	locker := config.GetRedisLock()
	if locker == nil {
		return fn()
	}

	key := fmt.Sprintf("lot:%s:%d", businessId, lotID)
	lock, err := locker.Obtain(ctx, key, 5*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	})
	if err != nil {
		// proceed without the lock; the DB guard still holds
		return fn()
	}
	defer lock.Release(ctx)

	return fn()
}
