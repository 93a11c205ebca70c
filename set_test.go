package swisstable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet(t *testing.T) {
	s := NewSet[uint64](4096)

	require.Equal(t, 4096, s.Capacity())
}

func TestSet_EffectiveCapacity(t *testing.T) {
	s := NewSet[uint64](4096)

	require.Equal(t, 4096*7/8, s.Stats().EffectiveCapacity)
}

func TestSet_Insert(t *testing.T) {
	s := NewSet[uint64](4096)

	inserted := s.Insert(1)
	require.True(t, inserted)

	inserted = s.Insert(1)
	require.False(t, inserted)

	assert.True(t, s.Contains(1))
	assert.Equal(t, 1, s.Len())
}

func TestSet_Insert_Grows(t *testing.T) {
	s := NewSet[uint64](16)

	for i := uint64(0); i < uint64(s.Stats().EffectiveCapacity); i++ {
		require.True(t, s.Insert(i))
	}
	require.Equal(t, 16, s.Capacity())

	require.True(t, s.Insert(uint64(s.Stats().EffectiveCapacity)))
	require.Equal(t, 32, s.Capacity())
}

func TestSet_Tombstones(t *testing.T) {
	// A collision hash forces every key to start probing at the same group.
	collisionHash := func(k string) uint64 {
		return 0
	}

	s := NewSet(16, WithHashFunc[string, struct{}](collisionHash))

	require.True(t, s.Insert("A"))
	require.True(t, s.Insert("B"))
	require.True(t, s.Insert("C"))

	require.True(t, s.Remove("B"))

	require.True(t, s.Contains("C"), "probe chain broken: could not find 'C' after removing 'B'")
}

func TestSet_Compact(t *testing.T) {
	const capacity = 32
	s := NewSet[int](capacity)

	for i := 0; i < s.Stats().EffectiveCapacity; i++ {
		s.Insert(i)
	}

	for i := 0; i < s.Stats().EffectiveCapacity-1; i++ {
		s.Remove(i)
	}

	s.Compact()

	lastIdx := s.Stats().EffectiveCapacity - 1
	require.True(t, s.Contains(lastIdx), "lost element %d after compact", lastIdx)
	require.Equal(t, capacity, s.Capacity(), "compact must not change capacity")
	require.Equal(t, 0, s.Stats().Tombstones)
}

func TestSet_BasicScenario(t *testing.T) {
	s := NewSet[string](0)

	require.True(t, s.Insert("x"))
	require.False(t, s.Insert("x"))
	require.True(t, s.Contains("x"))
	require.True(t, s.Remove("x"))
	require.False(t, s.Remove("x"))
}

func TestSet_Values(t *testing.T) {
	s := NewSet[int](16)

	s.Insert(1)
	s.Insert(2)
	s.Insert(3)

	values := s.Values()
	assert.ElementsMatch(t, []int{1, 2, 3}, values)
}

func TestSet_ClearAndIsEmpty(t *testing.T) {
	s := NewSet[int](16)
	s.Insert(1)
	s.Insert(2)

	s.Clear()

	assert.True(t, s.IsEmpty())
	assert.False(t, s.Contains(1))
}

func TestSet_MapConsistency(t *testing.T) {
	// A set built on values V is observationally equivalent to a map with
	// V keys and a single shared value.
	s := NewSet[int](16)
	m := NewMap[int, struct{}](16)

	for i := 0; i < 10; i++ {
		s.Insert(i)
		m.Insert(i, struct{}{})
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, m.ContainsKey(i), s.Contains(i))
	}
	assert.Equal(t, m.Len(), s.Len())
}
