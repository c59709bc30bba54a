package featuregate

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Storage.Get when the key has no record.
var ErrNotFound = errors.New("featuregate: key not found")

// Storage is the persistent cache store: a narrow async key-value interface
// whose records survive app restarts. Implementations must provide atomic
// read/write of a single key. All failures are treated as cache misses by
// the engine, never as fatal errors.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// storageKey addresses the single persisted flag record. The suffix is bumped
// on incompatible layout changes so old records are left behind rather than
// misread.
const storageKey = "featuregate.flag_cache.v1"
