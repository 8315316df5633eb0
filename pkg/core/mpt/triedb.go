package mpt

import (
	"github.com/nspcc-dev/mptdb/pkg/core/mpt/codec"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

// TrieDB is a read-only view of a committed trie. It keeps no state besides
// the root, so it's safe for concurrent use as long as the BackingStore is.
type TrieDB struct {
	db        BackingStore
	codec     codec.Codec
	cache     *NodeCache
	root      util.Uint256
	emptyRoot util.Uint256
}

// NewTrieDB returns a read-only trie starting at root. Only Codec and Cache
// are used from cfg.
func NewTrieDB(db BackingStore, root util.Uint256, cfg Config) *TrieDB {
	cfg = cfg.withDefaults()
	return &TrieDB{
		db:        db,
		codec:     cfg.Codec,
		cache:     cfg.Cache,
		root:      root,
		emptyRoot: EmptyRoot(db.Hasher(), cfg.Codec),
	}
}

// Root returns the root digest.
func (t *TrieDB) Root() util.Uint256 {
	return t.root
}

// IsEmpty returns true if the trie has no entries.
func (t *TrieDB) IsEmpty() bool {
	return t.root == t.emptyRoot
}

func (t *TrieDB) resolve(h NodeHandle) (Node, error) {
	d, ok := h.Hash()
	if !ok {
		panic("in-memory handle in a committed trie")
	}
	if d == t.emptyRoot {
		return EmptyNode{}, nil
	}
	return fetchNode(t.db, t.codec, t.cache, d)
}

// Get returns the value of key or nil if it's absent.
func (t *TrieDB) Get(key []byte) ([]byte, error) {
	return lookup(HashHandle(t.root), NewNibbleSlice(key), t.resolve)
}

// Contains checks whether key is present.
func (t *TrieDB) Contains(key []byte) (bool, error) {
	v, err := t.Get(key)
	return v != nil, err
}

// Walk calls f for every key-value pair in ascending key order until f
// returns false.
func (t *TrieDB) Walk(f func(key, value []byte) bool) error {
	_, err := walk(HashHandle(t.root), nil, t.resolve, f)
	return err
}
