package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetBasic(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, c.Exists("b"))
	assert.False(t, c.Exists("z"))
}

// TestEvictionOrder mirrors the spec's capacity-50 scenario: insert keys
// 0..99 into a capacity-50 cache, manually popping whenever the cache
// grows past capacity, and check only the most recent 50 survive.
func TestEvictionOrder(t *testing.T) {
	c := New[int, int](50)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
		for c.Size() > c.Capacity() {
			c.Pop()
		}
	}
	assert.Equal(t, 50, c.Size())

	for i := 0; i < 50; i++ {
		assert.False(t, c.Exists(i), "key %d should have been evicted", i)
	}
	for i := 50; i < 100; i++ {
		assert.True(t, c.Exists(i), "key %d should still be cached", i)
	}

	key, _ := c.Pop()
	assert.Equal(t, 50, key)
}

func TestGetRefreshesRecency(t *testing.T) {
	c := New[int, int](2)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Get(1) // 1 is now most recently used
	c.Put(3, 3)
	for c.Size() > c.Capacity() {
		c.Pop() // evicts 2, not 1
	}

	assert.True(t, c.Exists(1))
	assert.False(t, c.Exists(2))
	assert.True(t, c.Exists(3))
}

func TestTouchAndTouchIfExists(t *testing.T) {
	c := New[int, int](2)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Touch(1)
	c.Put(3, 3)
	for c.Size() > c.Capacity() {
		c.Pop()
	}
	assert.True(t, c.Exists(1))
	assert.False(t, c.Exists(2))

	assert.False(t, c.TouchIfExists(99))
	assert.True(t, c.TouchIfExists(1))
}

func TestEraseAndEraseIfExists(t *testing.T) {
	c := New[int, int](3)
	c.Put(1, 1)
	c.Erase(1)
	assert.False(t, c.Exists(1))

	assert.False(t, c.EraseIfExists(1))
	c.Put(2, 2)
	assert.True(t, c.EraseIfExists(2))
}

func TestClear(t *testing.T) {
	c := New[int, int](3)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.True(t, c.Empty())
}

func TestPutOverwriteUpdatesValueAndRecency(t *testing.T) {
	c := New[int, int](2)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Put(1, 100)
	c.Put(3, 3)
	for c.Size() > c.Capacity() {
		c.Pop() // should evict 2, since 1 was just refreshed
	}

	v, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, 100, v)
	assert.False(t, c.Exists(2))
}

// TestPutNeverEvictsOnItsOwn checks the structural invariant the review
// fix establishes: Put alone must never shrink the cache back down to
// capacity. Eviction is entirely caller-driven.
func TestPutNeverEvictsOnItsOwn(t *testing.T) {
	c := New[int, int](2)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Put(3, 3)
	assert.Equal(t, 3, c.Size())
	assert.True(t, c.Exists(1))
	assert.True(t, c.Exists(2))
	assert.True(t, c.Exists(3))
}
