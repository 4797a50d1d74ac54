package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// errStoreDown simulates an unreachable shared store.
var errStoreDown = errors.New("shared store unreachable")

// failingStore implements Store and fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (failingStore) Delete(context.Context, string) error          { return errStoreDown }
func (failingStore) Increment(context.Context, string) (int64, error) { return 0, errStoreDown }
func (failingStore) SetIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errStoreDown
}
func (failingStore) Keys(context.Context, string) ([]string, error) { return nil, errStoreDown }
func (failingStore) Close() error                                   { return nil }

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
