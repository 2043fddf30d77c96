package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("key not found")
	ErrConnectionFailed = errors.New("failed to connect")
)

// Store is a key-value store with whole-value atomic writes and per-key expiry.
// No compare-and-swap or multi-key transaction is offered.
type Store interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value []byte) error
}

// Sweeper is implemented by stores that keep expired values until compacted.
type Sweeper interface {
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
}
