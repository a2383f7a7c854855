package command

import (
	"context"
	"time"
)

// Locker serializes mutating gateway operations across processes. Acquire
// is non-blocking: a held lock fails immediately with ErrLockNotAcquired.
// The returned release function is safe to call once the work is done or
// abandoned; an expired lock releases itself.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}
