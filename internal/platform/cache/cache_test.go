package cache

import (
	"testing"
	"time"

	"recondragon/internal/testutil"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Run("stores and retrieves value", func(t *testing.T) {
		c := NewMemoryCache(10)
		c.Set("key1", "value1", 0)

		value, found := c.Get("key1")
		testutil.AssertTrue(t, found, "should find stored value")
		testutil.AssertEqual(t, value, "value1", "value should match")
	})

	t.Run("returns false for missing key", func(t *testing.T) {
		c := NewMemoryCache(10)
		_, found := c.Get("missing")
		testutil.AssertFalse(t, found, "should not find missing key")
	})

	t.Run("updates existing key", func(t *testing.T) {
		c := NewMemoryCache(10)
		c.Set("key1", "value1", 0)
		c.Set("key1", "value2", 0)

		value, found := c.Get("key1")
		testutil.AssertTrue(t, found, "should find key")
		testutil.AssertEqual(t, value, "value2", "should have updated value")
		testutil.AssertEqual(t, c.Size(), 1, "size should still be 1")
	})
}

func TestMemoryCache_TTL(t *testing.T) {
	c := NewMemoryCache(10)
	c.Set("key1", "value1", 30*time.Millisecond)

	_, found := c.Get("key1")
	testutil.AssertTrue(t, found, "should find key before expiration")

	time.Sleep(50 * time.Millisecond)

	_, found = c.Get("key1")
	testutil.AssertFalse(t, found, "should not find expired key")
	testutil.AssertEqual(t, c.Size(), 0, "expired entry removed")
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := NewMemoryCache(2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	// Tocar "a" la convierte en la más reciente
	c.Get("a")
	c.Set("c", 3, 0)

	_, found := c.Get("b")
	testutil.AssertFalse(t, found, "least recently used evicted")
	_, found = c.Get("a")
	testutil.AssertTrue(t, found, "recently used survives")
	_, found = c.Get("c")
	testutil.AssertTrue(t, found, "new entry present")
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(10)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	_, found := c.Get("a")
	testutil.AssertFalse(t, found, "deleted key gone")
	testutil.AssertEqual(t, c.Size(), 1, "one entry left")

	c.Clear()
	testutil.AssertEqual(t, c.Size(), 0, "cache cleared")
}

func TestNewMemoryCache_DefaultCapacity(t *testing.T) {
	c := NewMemoryCache(0)
	testutil.AssertEqual(t, c.Capacity(), 100, "default capacity for invalid values")
}
