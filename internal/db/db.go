// Package db defines the storage facade backing the persistent catalog.
package db

import (
	"context"
	"time"
)

// Store is the database facade. Consumers depend on the narrow
// sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	HashStore
	GuardedHashStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) (int64, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// GuardedHashStore provides a hash write guarded by a revision field,
// used for optimistic concurrency on singleton rows.
type GuardedHashStore interface {
	// HSetIfRev writes fields only if the hash's revField currently equals
	// expected (0 matches a missing key). Returns false on a revision mismatch.
	HSetIfRev(ctx context.Context, key string, fields map[string]string, revField string, expected int64) (bool, error)
}
