package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by RedisStore and PostgresStore once they have been
// closed.
var ErrClosed = errors.New("store closed")

// Store is the key-value contract the relay needs from its storage engine.
//
// Put unconditionally replaces any existing value and resets its expiry.
// After the TTL elapses the key behaves as absent. A non-positive TTL means
// the value never expires. Implementations may be eventually consistent.
type Store interface {
	// Get returns the value stored under key. ok is false when the key was
	// never written or has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that expire entries lazily and need
// periodic physical removal.
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Clock returns the current time.
type Clock func() time.Time

// RunSweeper calls s.DeleteExpired every interval until ctx is done.
// Errors are passed to onErr, which may be nil.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpired(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
