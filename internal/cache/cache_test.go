// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetAdd(t *testing.T) {
	c := New[string, int](4)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Add("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.InDelta(t, 0.5, st.HitRate, 1e-9)
}

func TestLRUAddKeepsExisting(t *testing.T) {
	c := New[string, int](4)
	assert.Equal(t, 1, c.Add("a", 1))
	assert.Equal(t, 1, c.Add("a", 2))
	v, _ := c.Peek("a")
	assert.Equal(t, 1, v)
}

func TestLRUEvictsOldest(t *testing.T) {
	c := New[int, string](2)
	var evicted []int
	c.OnEvict(func(k int, _ string) { evicted = append(evicted, k) })

	c.Add(1, "one")
	c.Add(2, "two")
	c.Get(1) // 2 becomes the oldest
	c.Add(3, "three")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek(2)
	assert.False(t, ok)
	assert.Equal(t, []int{2}, evicted)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRURemovePurge(t *testing.T) {
	c := New[int, int](0)
	assert.Equal(t, DefaultCapacity, c.Capacity())
	c.Add(1, 1)
	c.Add(2, 2)
	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestLRUConcurrent(t *testing.T) {
	c := New[string, int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := strconv.Itoa(i % 100)
				c.Add(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 64)
}

func BenchmarkLRUGet(b *testing.B) {
	c := New[string, int](1000)
	for i := 0; i < 100; i++ {
		c.Add(strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("50")
	}
}
