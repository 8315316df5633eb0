package mpt

import (
	"github.com/gammazero/deque"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

type (
	// storedNode is an arena slot content.
	storedNode interface {
		node() Node
	}

	// newStored is a node created or modified in the current session.
	newStored struct {
		n Node
	}

	// cachedStored is a node loaded from the BackingStore, it's clean and
	// known by its digest.
	cachedStored struct {
		n    Node
		hash util.Uint256
	}

	// writtenStored is a node of the session written to the BackingStore
	// by Root. Until its parent is written too the session holds the
	// reference taken by the write.
	writtenStored struct {
		n    Node
		hash util.Uint256
		held bool
	}
)

func (s newStored) node() Node     { return s.n }
func (s cachedStored) node() Node  { return s.n }
func (s writtenStored) node() Node { return s.n }

// nodeArena keeps nodes touched in the current session. Freed slots are
// reused before the slice grows.
type nodeArena struct {
	nodes []storedNode
	free  *deque.Deque[int]
	live  int
}

func newNodeArena() nodeArena {
	return nodeArena{
		free: deque.New[int](0),
	}
}

// alloc puts s into a free slot and returns its handle.
func (a *nodeArena) alloc(s storedNode) StorageHandle {
	a.live++
	if a.free.Len() > 0 {
		idx := a.free.PopFront()
		a.nodes[idx] = s
		return StorageHandle(idx)
	}
	a.nodes = append(a.nodes, s)
	return StorageHandle(len(a.nodes) - 1)
}

// set replaces the content of occupied slot h.
func (a *nodeArena) set(h StorageHandle, s storedNode) {
	if a.nodes[h] == nil {
		panic("access to a free arena slot")
	}
	a.nodes[h] = s
}

// destroy frees slot h and returns its former content.
func (a *nodeArena) destroy(h StorageHandle) storedNode {
	s := a.nodes[h]
	if s == nil {
		panic("double free of arena slot")
	}
	a.nodes[h] = nil
	a.free.PushBack(int(h))
	a.live--
	return s
}

// stored returns slot h content.
func (a *nodeArena) stored(h StorageHandle) storedNode {
	s := a.nodes[h]
	if s == nil {
		panic("access to a free arena slot")
	}
	return s
}

// get returns the node kept in slot h.
func (a *nodeArena) get(h StorageHandle) Node {
	return a.stored(h).node()
}

// Len returns the number of occupied slots.
func (a *nodeArena) Len() int {
	return a.live
}
