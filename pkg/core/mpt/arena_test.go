package mpt

import (
	"testing"

	"github.com/nspcc-dev/mptdb/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestNodeArena(t *testing.T) {
	a := newNodeArena()
	l1 := LeafNode{Key: NewNibbleSlice([]byte{1}), Value: []byte{1}}
	l2 := LeafNode{Key: NewNibbleSlice([]byte{2}), Value: []byte{2}}

	h1 := a.alloc(newStored{n: l1})
	h2 := a.alloc(cachedStored{n: l2, hash: util.Uint256{2}})
	require.NotEqual(t, h1, h2)
	require.Equal(t, 2, a.Len())
	require.Equal(t, l1, a.get(h1))
	require.Equal(t, l2, a.get(h2))

	s := a.destroy(h1)
	require.Equal(t, newStored{n: l1}, s)
	require.Equal(t, 1, a.Len())
	require.Panics(t, func() { a.get(h1) })
	require.Panics(t, func() { a.destroy(h1) })

	// Freed slot is reused.
	h3 := a.alloc(newStored{n: EmptyNode{}})
	require.Equal(t, h1, h3)
	require.Equal(t, 2, len(a.nodes))
	require.Equal(t, 2, a.Len())

	w := writtenStored{n: EmptyNode{}, hash: util.Uint256{3}, held: true}
	a.set(h3, w)
	require.Equal(t, w, a.stored(h3))
	require.Equal(t, 2, a.Len())
	a.destroy(h2)
	require.Panics(t, func() { a.set(h2, w) })
}

func TestNodeHandle(t *testing.T) {
	var h NodeHandle
	require.True(t, h.IsAbsent())
	require.Equal(t, "<absent>", h.String())

	h = InMemory(5)
	idx, ok := h.InMemory()
	require.True(t, ok)
	require.Equal(t, StorageHandle(5), idx)
	_, ok = h.Hash()
	require.False(t, ok)
	require.Equal(t, "#5", h.String())

	d := util.Uint256{1, 2}
	h = HashHandle(d)
	actual, ok := h.Hash()
	require.True(t, ok)
	require.Equal(t, d, actual)
	_, ok = h.InMemory()
	require.False(t, ok)
	require.False(t, h.IsAbsent())
	require.Equal(t, d.StringBE(), h.String())
}
