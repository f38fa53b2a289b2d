package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/formkit/pkg/cache"
)

func TestTTLCache_Basic(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := cache.NewTTLCache[string, int](3, time.Minute)

		c.Put("a", 1)
		c.Put("b", 2)

		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get missing", func(t *testing.T) {
		c := cache.NewTTLCache[string, int](3, time.Minute)
		v, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, v)
	})

	t.Run("replace resets position", func(t *testing.T) {
		c := cache.NewTTLCache[string, int](2, time.Minute)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Put("a", 3) // re-insert: "b" is now oldest
		c.Put("c", 4) // evicts "b"

		_, ok := c.Get("b")
		assert.False(t, ok)
		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 3, v)
	})

	t.Run("zero capacity panics", func(t *testing.T) {
		assert.Panics(t, func() { cache.NewTTLCache[string, int](0, time.Minute) })
	})
}

func TestTTLCache_InsertionOrderEviction(t *testing.T) {
	c := cache.NewTTLCache[string, int](3, time.Minute)

	var evicted []string
	c.SetEvictCallback(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	// Reading "a" must NOT save it: eviction is insertion order, not LRU.
	_, _ = c.Get("a")
	c.Put("d", 4)

	assert.Equal(t, []string{"a"}, evicted)
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := cache.NewTTLCache[string, int](10, 5*time.Minute)

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	c.Put("a", 1)

	// Within TTL.
	now = now.Add(4 * time.Minute)
	_, ok := c.Get("a")
	assert.True(t, ok)

	// Past TTL.
	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_Sweep(t *testing.T) {
	c := cache.NewTTLCache[string, int](10, time.Minute)

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	c.Put("old", 1)

	now = now.Add(30 * time.Second)
	c.Put("fresh", 2)

	now = now.Add(45 * time.Second)
	removed := c.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestTTLCache_Clear(t *testing.T) {
	c := cache.NewTTLCache[string, int](10, time.Minute)

	cleared := 0
	c.SetEvictCallback(func(string, int) { cleared++ })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	assert.Equal(t, 2, cleared)
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
