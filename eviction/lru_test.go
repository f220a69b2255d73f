package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	pol, err := New(LRU, 2)
	require.NoError(t, err)

	_, evicted := pol.OnPut("a")
	assert.False(t, evicted)
	_, evicted = pol.OnPut("b")
	assert.False(t, evicted)

	// Touch a so b becomes the least recently used.
	pol.OnGet("a")

	victim, evicted := pol.OnPut("c")
	require.True(t, evicted)
	assert.Equal(t, "b", victim)
	assert.Equal(t, 2, pol.Len())
}

func TestLRUAccessReordersWithinCapacity(t *testing.T) {
	pol, err := New(LRU, 3)
	require.NoError(t, err)

	pol.OnPut("a")
	pol.OnPut("b")
	pol.OnPut("c")
	pol.OnGet("a")

	victim, evicted := pol.OnPut("d")
	require.True(t, evicted)
	assert.Equal(t, "b", victim, "b was the least recently used, not a")
	assert.Equal(t, 3, pol.Len())
}

func TestLRURePutRefreshesWithoutEviction(t *testing.T) {
	pol, err := New(LRU, 2)
	require.NoError(t, err)

	pol.OnPut("a")
	pol.OnPut("b")

	// Overwriting a resident key must not evict anything.
	_, evicted := pol.OnPut("a")
	assert.False(t, evicted)

	victim, evicted := pol.OnPut("c")
	require.True(t, evicted)
	assert.Equal(t, "b", victim)
}

func TestLRURemoveDropsTracking(t *testing.T) {
	pol, err := New(LRU, 2)
	require.NoError(t, err)

	pol.OnPut("a")
	pol.OnPut("b")
	pol.Remove("a")
	assert.Equal(t, 1, pol.Len())

	// Room again: no eviction needed.
	_, evicted := pol.OnPut("c")
	assert.False(t, evicted)

	// Removing a missing key is a no-op.
	pol.Remove("missing")
	assert.Equal(t, 2, pol.Len())
}
