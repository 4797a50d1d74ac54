package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is not present in the shared store.
var ErrNotFound = errors.New("key not found in shared store")

// RedisStore is the Redis-backed shared store. It is the source of
// cross-process truth for cached values, version counters and locks.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Get retrieves the raw value stored under key.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores value under key. A zero ttl means no expiry.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return rs.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes key. Deleting an absent key is not an error.
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	return rs.client.Del(ctx, key).Err()
}

// Increment atomically adds 1 to the integer stored at key, creating it
// at 1 when absent, and returns the new value.
func (rs *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	return rs.client.Incr(ctx, key).Result()
}

// SetIfAbsent atomically stores value under key only when the key does
// not exist. It reports whether this call created the key.
func (rs *RedisStore) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return rs.client.SetNX(ctx, key, value, ttl).Result()
}

// Keys returns all keys matching the glob pattern. Intended for bulk and
// monitoring operations only, never the hot read path.
func (rs *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := rs.client.Scan(ctx, cursor, pattern, 512).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// Client exposes the underlying Redis client so the pub/sub bus can share
// the connection pool.
func (rs *RedisStore) Client() *redis.Client {
	return rs.client
}
