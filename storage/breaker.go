package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerStore decorates a Store with a circuit breaker so that a
// flapping shared store fails fast instead of stacking timeouts on every
// request. Read callers treat breaker errors as misses; write callers
// still see them as errors.
type BreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings tunes the circuit breaker decorator.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker once this many calls in a row
	// fail. Zero selects the default of 5.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing the
	// store again. Zero selects the default of 10 seconds.
	OpenTimeout time.Duration
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner Store, settings BreakerSettings) *BreakerStore {
	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := settings.OpenTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "shared-store",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return &BreakerStore{inner: inner, breaker: breaker}
}

// Get retrieves the value stored under key. An absent key does not count
// as a store failure.
func (bs *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := bs.breaker.Execute(func() (any, error) {
		value, err := bs.inner.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrNotFound
	}
	return value.([]byte), nil
}

// Set stores value under key.
func (bs *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := bs.breaker.Execute(func() (any, error) {
		return nil, bs.inner.Set(ctx, key, value, ttl)
	})
	return err
}

// Delete removes key.
func (bs *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := bs.breaker.Execute(func() (any, error) {
		return nil, bs.inner.Delete(ctx, key)
	})
	return err
}

// Increment atomically increments the counter at key.
func (bs *BreakerStore) Increment(ctx context.Context, key string) (int64, error) {
	value, err := bs.breaker.Execute(func() (any, error) {
		return bs.inner.Increment(ctx, key)
	})
	if err != nil {
		return 0, err
	}
	return value.(int64), nil
}

// SetIfAbsent atomically stores value when key does not exist.
func (bs *BreakerStore) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	value2, err := bs.breaker.Execute(func() (any, error) {
		return bs.inner.SetIfAbsent(ctx, key, value, ttl)
	})
	if err != nil {
		return false, err
	}
	return value2.(bool), nil
}

// Keys returns all keys matching the glob pattern.
func (bs *BreakerStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	value, err := bs.breaker.Execute(func() (any, error) {
		return bs.inner.Keys(ctx, pattern)
	})
	if err != nil {
		return nil, err
	}
	keys, _ := value.([]string)
	return keys, nil
}

// Close closes the underlying store.
func (bs *BreakerStore) Close() error {
	return bs.inner.Close()
}
