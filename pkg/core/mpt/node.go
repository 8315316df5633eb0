package mpt

import (
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/mpt/codec"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

// StorageHandle is an index of a node in the arena of a TrieDBMut.
type StorageHandle int

type handleKind byte

const (
	absentHandle handleKind = iota
	inMemoryHandle
	hashHandle
)

// NodeHandle is a reference to a child node. It either points into the
// arena of the current session (and is never persisted as is) or holds a
// digest of a committed node. Zero NodeHandle means there is no node.
type NodeHandle struct {
	kind  handleKind
	index StorageHandle
	hash  util.Uint256
}

// InMemory returns a handle of the arena node h.
func InMemory(h StorageHandle) NodeHandle {
	return NodeHandle{kind: inMemoryHandle, index: h}
}

// HashHandle returns a handle of the committed node with digest h.
func HashHandle(h util.Uint256) NodeHandle {
	return NodeHandle{kind: hashHandle, hash: h}
}

// IsAbsent returns true for zero handle.
func (h NodeHandle) IsAbsent() bool {
	return h.kind == absentHandle
}

// InMemory returns the arena index if h is an in-memory handle.
func (h NodeHandle) InMemory() (StorageHandle, bool) {
	return h.index, h.kind == inMemoryHandle
}

// Hash returns the digest if h references a committed node.
func (h NodeHandle) Hash() (util.Uint256, bool) {
	return h.hash, h.kind == hashHandle
}

// String implements fmt.Stringer.
func (h NodeHandle) String() string {
	switch h.kind {
	case inMemoryHandle:
		return fmt.Sprintf("#%d", h.index)
	case hashHandle:
		return h.hash.StringBE()
	default:
		return "<absent>"
	}
}

type (
	// Node is a decoded trie node.
	Node interface {
		Type() codec.NodeType
	}

	// EmptyNode is the node of an empty trie.
	EmptyNode struct{}

	// LeafNode is a terminal node holding the rest of the key and a non-empty
	// value.
	LeafNode struct {
		Key   NibbleSlice
		Value []byte
	}

	// ExtensionNode shares its non-empty Key with exactly one Child which is
	// always a branch.
	ExtensionNode struct {
		Key   NibbleSlice
		Child NodeHandle
	}

	// BranchNode has up to 16 children indexed by the next key nibble and an
	// optional value for the key ending at this node.
	BranchNode struct {
		Children [codec.ChildrenCount]NodeHandle
		Value    []byte
	}
)

// Type implements Node interface.
func (EmptyNode) Type() codec.NodeType { return codec.EmptyT }

// Type implements Node interface.
func (LeafNode) Type() codec.NodeType { return codec.LeafT }

// Type implements Node interface.
func (ExtensionNode) Type() codec.NodeType { return codec.ExtensionT }

// Type implements Node interface.
func (BranchNode) Type() codec.NodeType { return codec.BranchT }

// childrenCount returns the number of present children and the index of the
// last one.
func (b BranchNode) childrenCount() (int, byte) {
	var (
		count int
		last  byte
	)
	for i := range b.Children {
		if !b.Children[i].IsAbsent() {
			count++
			last = byte(i)
		}
	}
	return count, last
}

// fromCodecNode converts decoded node into its in-memory form.
func fromCodecNode(n codec.Node) Node {
	switch n := n.(type) {
	case codec.Leaf:
		return LeafNode{Key: NibbleSliceFromNibbles(n.Key), Value: n.Value}
	case codec.Extension:
		return ExtensionNode{Key: NibbleSliceFromNibbles(n.Key), Child: HashHandle(n.Child)}
	case codec.Branch:
		var b = BranchNode{Value: n.Value}
		for i := range n.Children {
			if n.Children[i] != nil {
				b.Children[i] = HashHandle(*n.Children[i])
			}
		}
		return b
	default:
		return EmptyNode{}
	}
}
