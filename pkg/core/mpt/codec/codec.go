/*
Package codec defines canonical byte representation of trie nodes. Nodes
handled here reference their children by digest only, so every node can be
encoded independently once its children are committed.
*/
package codec

import (
	"errors"

	"github.com/nspcc-dev/mptdb/pkg/util"
)

// NodeType represents node type.
type NodeType byte

// Node types definitions.
const (
	EmptyT     NodeType = 0x00
	LeafT      NodeType = 0x01
	ExtensionT NodeType = 0x02
	BranchT    NodeType = 0x03
)

// ChildrenCount is the number of children of a branch node.
const ChildrenCount = 16

// ErrDecoding is returned (wrapped) for any malformed node encoding.
var ErrDecoding = errors.New("invalid node encoding")

type (
	// Node is a trie node with children referenced by digests.
	Node interface {
		Type() NodeType
	}

	// Empty is the node of an empty trie.
	Empty struct{}

	// Leaf is a terminal node. Key is a partial key, one nibble per byte.
	Leaf struct {
		Key   []byte
		Value []byte
	}

	// Extension is a node sharing the Key prefix with its single Child.
	Extension struct {
		Key   []byte
		Child util.Uint256
	}

	// Branch is a node with up to 16 children indexed by the next nibble and
	// an optional value. Nil child means there is no child in this slot.
	Branch struct {
		Children [ChildrenCount]*util.Uint256
		Value    []byte
	}

	// Codec converts nodes to canonical bytes and back.
	Codec interface {
		// Encode returns canonical representation of n.
		Encode(n Node) []byte
		// Decode parses data, returned error wraps ErrDecoding if data is
		// not a valid node.
		Decode(data []byte) (Node, error)
		// EmptyNode returns the encoding of Empty node.
		EmptyNode() []byte
	}
)

// Type implements Node interface.
func (Empty) Type() NodeType { return EmptyT }

// Type implements Node interface.
func (Leaf) Type() NodeType { return LeafT }

// Type implements Node interface.
func (Extension) Type() NodeType { return ExtensionT }

// Type implements Node interface.
func (Branch) Type() NodeType { return BranchT }

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case EmptyT:
		return "empty"
	case LeafT:
		return "leaf"
	case ExtensionT:
		return "extension"
	case BranchT:
		return "branch"
	default:
		return "unknown"
	}
}
