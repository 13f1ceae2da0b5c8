// Package lock serializes work per key, in process or across instances via Redis.
package lock

import (
	"context"
	"fmt"
)

// Locker acquires an exclusive lock on key. The returned function releases it
// and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// SellKey is the lock key guarding sales of asset by a client.
func SellKey(clientID uint, asset string) string {
	return fmt.Sprintf("%d:%s", clientID, asset)
}
