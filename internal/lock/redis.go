package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoledger/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces sell lock keys in Redis.
const KeyPrefix = "ledger:sell:"

const defaultPollInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance connected to the same Redis.
// Callers in the same process queue on a local KeyedMutex before contending in Redis.
type RedisLocker struct {
	client       *redis.Client
	local        *KeyedMutex
	ttl          time.Duration
	pollInterval time.Duration
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a lock survives a crashed holder.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client:       client,
		local:        NewKeyedMutex(),
		ttl:          ttl,
		pollInterval: defaultPollInterval,
	}
}

// Lock acquires key in Redis, polling until it is free or ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := r.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := KeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquiring lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			unlockLocal()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			defer unlockLocal()
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				logger.Named("lock").Warnw("failed to release lock", "key", redisKey, "error", err)
			}
		})
	}, nil
}
