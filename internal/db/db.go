package db

import (
	"context"
	"time"
)

// Store is the persistence contract behind the instance registry.
// Implementations must replace a value atomically: a reader never sees a
// partially written value.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks storage availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides whole-value key operations.
type KVStore interface {
	// Get returns ErrKeyNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
