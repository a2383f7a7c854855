// Package lock provides short-lived named locks backed by Redis.
//
// The gateway delivers webhooks fast enough that the notification for an
// operation can land before the API call that triggered it has returned.
// Outbound handlers take a lock named after the operation and transaction
// before the mutating remote call and hold it only until the local record is
// written; the TTL guarantees a crashed holder cannot block later webhook
// processing.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
)

// unlockScript deletes the key only when it still holds this owner's value.
// The compare-and-delete must be atomic, otherwise a holder whose TTL
// expired could delete the lock a later owner acquired.
const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// RedisLocker acquires named locks with a TTL.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a locker on the given Redis client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "gateway:lock:"}
}

// Acquire takes the named lock, returning a release function. The lock is
// not reentrant and not blocking: a second acquirer fails immediately with
// ErrLockNotAcquired. Release is safe to call after the TTL has expired.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := l.prefix + name
	owner := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainErrors.ErrLockNotAcquired
	}

	release := func() {
		// Detached context: the lock must be released even when the
		// request context was cancelled by the remote call failing.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, unlockScript, []string{key}, owner).Err()
	}

	return release, nil
}
