package storage

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process implementation of the shared store
// contract. It backs tests and single-node deployments where no Redis is
// available; all operations are atomic under one mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves the value stored under key.
func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, ok := ms.entries[key]
	if !ok || entry.expired(time.Now()) {
		delete(ms.entries, key)
		return nil, ErrNotFound
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores value under key. A zero ttl means no expiry.
func (ms *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[key] = newEntry(value, ttl)
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

// Increment atomically adds 1 to the integer stored at key, creating it
// at 1 when absent, and returns the new value.
func (ms *MemoryStore) Increment(_ context.Context, key string) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var current int64
	if entry, ok := ms.entries[key]; ok && !entry.expired(time.Now()) {
		parsed, err := strconv.ParseInt(string(entry.value), 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}
	current++
	ms.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(current, 10))}
	return current, nil
}

// SetIfAbsent atomically stores value under key only when the key does
// not exist. It reports whether this call created the key.
func (ms *MemoryStore) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if entry, ok := ms.entries[key]; ok && !entry.expired(time.Now()) {
		return false, nil
	}
	ms.entries[key] = newEntry(value, ttl)
	return true, nil
}

// Keys returns all live keys matching the glob pattern.
func (ms *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var keys []string
	for key, entry := range ms.entries {
		if entry.expired(now) {
			delete(ms.entries, key)
			continue
		}
		if matchGlob(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// matchGlob matches Redis-style glob patterns with * and ?. Unlike
// path.Match, no byte is special in the subject: a key containing /
// still matches "ns:v*".
func matchGlob(pattern, s string) bool {
	starP, starS := -1, 0
	p, i := 0, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[i]):
			p++
			i++
		case p < len(pattern) && pattern[p] == '*':
			starP, starS = p, i
			p++
		case starP >= 0:
			starS++
			p, i = starP+1, starS
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// Close releases the store's memory.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries = make(map[string]memoryEntry)
	return nil
}

func newEntry(value []byte, ttl time.Duration) memoryEntry {
	copied := make([]byte, len(value))
	copy(copied, value)
	entry := memoryEntry{value: copied}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	return entry
}
