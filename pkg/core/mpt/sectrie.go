package mpt

import (
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

// SecTrieDBMut is a TrieMut hashing every key with the BackingStore hasher
// before passing it to the wrapped TrieDBMut. It bounds the trie depth
// regardless of the keys used.
type SecTrieDBMut struct {
	inner  *TrieDBMut
	hasher hash.Hasher
}

// NewSecTrieDBMut wraps inner.
func NewSecTrieDBMut(inner *TrieDBMut) *SecTrieDBMut {
	return &SecTrieDBMut{
		inner:  inner,
		hasher: inner.db.Hasher(),
	}
}

// Inner returns the wrapped trie.
func (s *SecTrieDBMut) Inner() *TrieDBMut {
	return s.inner
}

func (s *SecTrieDBMut) key(key []byte) []byte {
	h := s.hasher.Hash(key)
	return h[:]
}

// Root implements TrieMut interface.
func (s *SecTrieDBMut) Root() (util.Uint256, error) {
	return s.inner.Root()
}

// Close implements TrieMut interface.
func (s *SecTrieDBMut) Close() error {
	return s.inner.Close()
}

// IsEmpty implements TrieMut interface.
func (s *SecTrieDBMut) IsEmpty() bool {
	return s.inner.IsEmpty()
}

// Contains implements TrieMut interface.
func (s *SecTrieDBMut) Contains(key []byte) (bool, error) {
	return s.inner.Contains(s.key(key))
}

// Get implements TrieMut interface.
func (s *SecTrieDBMut) Get(key []byte) ([]byte, error) {
	return s.inner.Get(s.key(key))
}

// Insert implements TrieMut interface.
func (s *SecTrieDBMut) Insert(key, value []byte) error {
	return s.inner.Insert(s.key(key), value)
}

// Remove implements TrieMut interface.
func (s *SecTrieDBMut) Remove(key []byte) error {
	return s.inner.Remove(s.key(key))
}

// SecTrieDB is a read-only view of a committed SecTrieDBMut.
type SecTrieDB struct {
	*TrieDB
	hasher hash.Hasher
}

// NewSecTrieDB returns a read-only secure trie starting at root.
func NewSecTrieDB(db BackingStore, root util.Uint256, cfg Config) *SecTrieDB {
	return &SecTrieDB{
		TrieDB: NewTrieDB(db, root, cfg),
		hasher: db.Hasher(),
	}
}

// Get returns the value of key or nil if it's absent.
func (s *SecTrieDB) Get(key []byte) ([]byte, error) {
	h := s.hasher.Hash(key)
	return s.TrieDB.Get(h[:])
}

// Contains checks whether key is present.
func (s *SecTrieDB) Contains(key []byte) (bool, error) {
	v, err := s.Get(key)
	return v != nil, err
}
