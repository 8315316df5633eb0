package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/hashdb"
	"github.com/nspcc-dev/mptdb/pkg/core/mpt/codec"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

var _ BackingStore = (*hashdb.DB)(nil)

// nodeResolver returns the node referenced by a non-absent handle.
type nodeResolver func(h NodeHandle) (Node, error)

// fetchNode reads committed node h from cache or db.
func fetchNode(db BackingStore, c codec.Codec, cache *NodeCache, h util.Uint256) (Node, error) {
	if n, ok := cache.Get(h); ok {
		return n, nil
	}
	data, err := db.Get(h)
	if err != nil {
		if errors.Is(err, hashdb.ErrNotFound) {
			return nil, &MissingNodeError{Hash: h, Err: err}
		}
		return nil, fmt.Errorf("failed to get node %s: %w", h.StringBE(), err)
	}
	cn, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode node %s: %w", h.StringBE(), err)
	}
	n := fromCodecNode(cn)
	cache.Add(h, n)
	return n, nil
}

// lookup returns the value of key in the trie starting at root, nil is
// returned for absent keys.
func lookup(root NodeHandle, key NibbleSlice, resolve nodeResolver) ([]byte, error) {
	h := root
	for !h.IsAbsent() {
		n, err := resolve(h)
		if err != nil {
			return nil, err
		}
		switch n := n.(type) {
		case EmptyNode:
			return nil, nil
		case LeafNode:
			if n.Key.Equal(key) {
				return bytes.Clone(n.Value), nil
			}
			return nil, nil
		case ExtensionNode:
			if !key.StartsWith(n.Key) {
				return nil, nil
			}
			key = key.Mid(n.Key.Len())
			h = n.Child
		case BranchNode:
			if key.IsEmpty() {
				if len(n.Value) == 0 {
					return nil, nil
				}
				return bytes.Clone(n.Value), nil
			}
			h = n.Children[key.At(0)]
			key = key.Mid(1)
		default:
			panic(fmt.Sprintf("unknown node type %T", n))
		}
	}
	return nil, nil
}

// walk calls f for every key-value pair under h in ascending key order.
// It returns false if f requested to stop.
func walk(h NodeHandle, prefix []byte, resolve nodeResolver, f func(key, value []byte) bool) (bool, error) {
	if h.IsAbsent() {
		return true, nil
	}
	n, err := resolve(h)
	if err != nil {
		return false, err
	}
	switch n := n.(type) {
	case EmptyNode:
		return true, nil
	case LeafNode:
		return emit(appendNibbles(prefix, n.Key.ToNibbles()...), n.Value, f), nil
	case ExtensionNode:
		return walk(n.Child, appendNibbles(prefix, n.Key.ToNibbles()...), resolve, f)
	case BranchNode:
		if len(n.Value) != 0 && !emit(prefix, n.Value, f) {
			return false, nil
		}
		for i := range n.Children {
			ok, err := walk(n.Children[i], appendNibbles(prefix, byte(i)), resolve, f)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// emit passes the pair to f if path is a valid byte key. Odd-length paths
// can't hold values in a byte-keyed trie.
func emit(path []byte, value []byte, f func(key, value []byte) bool) bool {
	key, ok := NibbleSliceFromNibbles(path).Bytes()
	if !ok {
		return true
	}
	return f(key, bytes.Clone(value))
}

func appendNibbles(prefix []byte, nibbles ...byte) []byte {
	res := make([]byte, len(prefix), len(prefix)+len(nibbles))
	copy(res, prefix)
	return append(res, nibbles...)
}
