package cache

import (
	"testing"
	"time"
)

func TestLFUCacheNew(t *testing.T) {
	cache, err := NewLFUCache(100, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if cache == nil {
		t.Fatal("Cache should not be nil")
	}
}

func TestLFUCacheNewWithZeroSize(t *testing.T) {
	_, err := NewLFUCache(0, time.Minute)
	if err == nil {
		t.Fatal("Expected error when creating cache with size 0")
	}
}

func TestLFUCacheSetGet(t *testing.T) {
	cache, err := NewLFUCache(100, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Wait()

	value, found := cache.Get("key1")
	if !found {
		t.Fatal("Value should be found")
	}
	if value != "value1" {
		t.Fatalf("Expected value1, got %v", value)
	}
}

func TestLFUCacheDelete(t *testing.T) {
	cache, err := NewLFUCache(100, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Wait()
	cache.Delete("key1")

	if _, found := cache.Get("key1"); found {
		t.Fatal("Deleted key should not be found")
	}
}

func TestLFUCacheClear(t *testing.T) {
	cache, err := NewLFUCache(100, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Set("key2", "value2", 1)
	cache.Wait()
	cache.Clear()

	if _, found := cache.Get("key1"); found {
		t.Fatal("Cleared key should not be found")
	}
}

func TestLFUCacheExpiry(t *testing.T) {
	cache, err := NewLFUCache(100, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Wait()
	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get("key1"); found {
		t.Fatal("Expired entry must never be returned")
	}
}

func TestLFUCacheMetricsSizeTracksEntries(t *testing.T) {
	cache, err := NewLFUCache(100, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Set("key2", "value2", 1)
	cache.Wait()

	if size := cache.Metrics().Size; size != 2 {
		t.Fatalf("Expected size 2, got %d", size)
	}

	// Overwriting an existing key must not grow the count.
	cache.Set("key1", "value1b", 1)
	cache.Wait()
	if size := cache.Metrics().Size; size != 2 {
		t.Fatalf("Expected size 2 after overwrite, got %d", size)
	}

	cache.Delete("key1")
	if size := cache.Metrics().Size; size != 1 {
		t.Fatalf("Expected size 1 after delete, got %d", size)
	}

	cache.Clear()
	if size := cache.Metrics().Size; size != 0 {
		t.Fatalf("Expected size 0 after clear, got %d", size)
	}
}

func TestLFUCacheMetricsCounters(t *testing.T) {
	cache, err := NewLFUCache(100, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Wait()
	cache.Get("key1")
	cache.Get("missing")

	metrics := cache.Metrics()
	if metrics.Hits != 1 {
		t.Fatalf("Expected 1 hit, got %d", metrics.Hits)
	}
	if metrics.Misses != 1 {
		t.Fatalf("Expected 1 miss, got %d", metrics.Misses)
	}
}
