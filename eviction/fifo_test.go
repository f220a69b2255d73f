package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOEvictsOldestInsertion(t *testing.T) {
	pol, err := New(FIFO, 2)
	require.NoError(t, err)

	pol.OnPut("a")
	pol.OnPut("b")

	// Reads never matter for FIFO.
	pol.OnGet("a")
	pol.OnGet("a")

	victim, evicted := pol.OnPut("c")
	require.True(t, evicted)
	assert.Equal(t, "a", victim)
	assert.Equal(t, 2, pol.Len())
}

func TestFIFORePutKeepsOriginalPosition(t *testing.T) {
	pol, err := New(FIFO, 2)
	require.NoError(t, err)

	pol.OnPut("a")
	pol.OnPut("b")
	pol.OnPut("a") // no-op, a stays oldest

	victim, evicted := pol.OnPut("c")
	require.True(t, evicted)
	assert.Equal(t, "a", victim)
}

func TestFIFORemove(t *testing.T) {
	pol, err := New(FIFO, 2)
	require.NoError(t, err)

	pol.OnPut("a")
	pol.OnPut("b")
	pol.Remove("a")

	_, evicted := pol.OnPut("c")
	assert.False(t, evicted)

	victim, evicted := pol.OnPut("d")
	require.True(t, evicted)
	assert.Equal(t, "b", victim)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("clock", 10)
	assert.Error(t, err)
	_, err = New(LRU, 0)
	assert.Error(t, err)
}
