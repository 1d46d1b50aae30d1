package history

import (
	"context"
	"errors"
)

// ErrCapacityExceeded indicates the underlying store rejected a write due to size limits.
var ErrCapacityExceeded = errors.New("kv capacity exceeded")

// KV port (interface untuk key-value store persisten).
// Get returns ok=false when the key is absent. Set may fail with ErrCapacityExceeded.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
