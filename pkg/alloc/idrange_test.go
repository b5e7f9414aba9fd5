package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDAllocatorAdvancesMonotonically(t *testing.T) {
	a := NewIDAllocator(500, 4596) // TunnelIds range

	id1, ok := a.NextAvailable()
	require.True(t, ok)
	require.Equal(t, uint32(500), id1)

	id2, ok := a.NextAvailable()
	require.True(t, ok)
	require.Equal(t, uint32(501), id2)
}

func TestIDAllocatorReusesReleasedIDs(t *testing.T) {
	a := NewIDAllocator(0, 10)

	id1, _ := a.NextAvailable()
	id2, _ := a.NextAvailable()
	a.Unassign(id1)

	next, ok := a.NextAvailable()
	require.True(t, ok)
	require.Equal(t, id1, next)
	require.NotEqual(t, id2, next)
}

func TestIDAllocatorUnassignIsIdempotent(t *testing.T) {
	a := NewIDAllocator(0, 10)
	a.Unassign(5)
	a.Unassign(5)
	require.Equal(t, 0, a.AssignedCount())
}

func TestIDAllocatorExhaustion(t *testing.T) {
	a := NewIDAllocator(0, 2)
	_, ok1 := a.NextAvailable()
	_, ok2 := a.NextAvailable()
	_, ok3 := a.NextAvailable()

	require.True(t, ok1)
	require.True(t, ok2)
	require.False(t, ok3)
}

func TestIDAllocatorAssignOutOfRange(t *testing.T) {
	a := NewIDAllocator(500, 4596)
	err := a.Assign(100)
	require.Error(t, err)
}

func TestIDAllocatorAssignRebuildsMirror(t *testing.T) {
	a := NewIDAllocator(0, 65535) // LinkIds range
	require.NoError(t, a.Assign(42))
	require.True(t, a.IsAssigned(42))

	next, ok := a.NextAvailable()
	require.True(t, ok)
	require.NotEqual(t, uint32(42), next)
}
