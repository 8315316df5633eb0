/*
Package mpt implements Modified Merkle Patricia Trie over a content-addressed
node store.

Keys are split into 4-bit nibbles and nodes are addressed by the hash of
their canonical encoding, so the root digest authenticates the whole
key-value set. TrieDBMut accumulates changes in memory and commits them to
the BackingStore on Root, TrieDB provides read-only access to a committed
root. SecTrieDBMut and SecTrieDB hash keys before using them.
*/
package mpt

import (
	"github.com/nspcc-dev/mptdb/pkg/core/mpt/codec"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"github.com/nspcc-dev/mptdb/pkg/util"
	"go.uber.org/zap"
)

type (
	// BackingStore is a reference-counted content-addressed node store. Get
	// and Reference must return an error wrapping hashdb.ErrNotFound for
	// unknown digests. Insert stores a node referring to refs (or takes one
	// more reference to already present content), Remove drops a reference
	// and deletes nodes nothing refers to anymore.
	BackingStore interface {
		Get(h util.Uint256) ([]byte, error)
		Insert(data []byte, refs ...util.Uint256) (util.Uint256, error)
		Reference(h util.Uint256) error
		Remove(h util.Uint256) error
		Hasher() hash.Hasher
	}

	// TrieMut is a mutable key-value trie.
	TrieMut interface {
		// Root commits all changes and returns the root digest.
		Root() (util.Uint256, error)
		// IsEmpty returns true if the trie has no entries.
		IsEmpty() bool
		// Contains checks whether key is present.
		Contains(key []byte) (bool, error)
		// Get returns the value of key or nil if it's absent.
		Get(key []byte) ([]byte, error)
		// Insert puts key-value pair, empty value removes the key.
		Insert(key, value []byte) error
		// Remove deletes key, absent key is not an error.
		Remove(key []byte) error
		// Close drops uncommitted changes and references held by the trie.
		Close() error
	}
)

// Mode is the trie node retention mode.
type Mode byte

const (
	// ModeLatest releases the previous root on commit, so nodes only it
	// refers to are removed from the BackingStore.
	ModeLatest Mode = iota
	// ModeAll keeps a reference to every committed root, so all of them
	// stay resolvable.
	ModeAll
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "latest"
}

// Config contains optional trie parameters.
type Config struct {
	// Log is used for debug messages, nop logger is used if it's nil.
	Log *zap.Logger
	// Codec is the node codec, codec.Binary by default.
	Codec codec.Codec
	// Cache is a shared cache of decoded nodes.
	Cache *NodeCache
	// Mode is the node retention mode.
	Mode Mode
}

func (c Config) withDefaults() Config {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Codec == nil {
		c.Codec = codec.Binary{}
	}
	return c
}

// EmptyRoot returns the digest of an empty trie for the given hasher and codec.
func EmptyRoot(h hash.Hasher, c codec.Codec) util.Uint256 {
	if c == nil {
		c = codec.Binary{}
	}
	return h.Hash(c.EmptyNode())
}
