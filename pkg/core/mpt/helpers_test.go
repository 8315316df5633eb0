package mpt

import (
	"math/rand"
	"testing"

	"github.com/nspcc-dev/mptdb/pkg/core/hashdb"
	"github.com/nspcc-dev/mptdb/pkg/core/storage"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"github.com/nspcc-dev/mptdb/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestDB() *hashdb.DB {
	return hashdb.New(storage.NewMemoryStore(), hash.HasherFunc(hash.Keccak256), nil)
}

func newTestTrie(t *testing.T) (*TrieDBMut, *hashdb.DB) {
	db := newTestDB()
	return NewTrieDBMut(db, Config{}), db
}

type kv struct {
	key   []byte
	value []byte
}

// rootOf builds a new trie from pairs inserted in the given order and returns
// its root.
func rootOf(t *testing.T, pairs []kv) util.Uint256 {
	tr, _ := newTestTrie(t)
	for _, p := range pairs {
		require.NoError(t, tr.Insert(p.key, p.value))
	}
	r, err := tr.Root()
	require.NoError(t, err)
	return r
}

func shuffled(r *rand.Rand, pairs []kv) []kv {
	res := make([]kv, len(pairs))
	copy(res, pairs)
	r.Shuffle(len(res), func(i, j int) { res[i], res[j] = res[j], res[i] })
	return res
}

func (tr *TrieDBMut) testHas(t *testing.T, key, value []byte) {
	v, err := tr.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, v)
	ok, err := tr.Contains(key)
	require.NoError(t, err)
	require.Equal(t, value != nil, ok)
}

// requireValid checks structure invariants of the subtrie rooted at h:
// - BranchNode has at least 2 entries (children or value)
// - ExtensionNode has non-empty key and a branch child
// - LeafNode has non-empty value
// It is used only during testing to catch possible bugs.
func (tr *TrieDBMut) requireValid(t *testing.T, h NodeHandle) {
	if h.IsAbsent() {
		return
	}
	n, err := tr.resolve(h)
	require.NoError(t, err)
	switch n := n.(type) {
	case BranchNode:
		count, _ := n.childrenCount()
		if len(n.Value) != 0 {
			count++
		}
		require.GreaterOrEqual(t, count, 2, "branch %s with %d entries", h, count)
		for i := range n.Children {
			tr.requireValid(t, n.Children[i])
		}
	case ExtensionNode:
		require.False(t, n.Key.IsEmpty(), "extension %s with empty key", h)
		child, err := tr.resolve(n.Child)
		require.NoError(t, err)
		_, ok := child.(BranchNode)
		require.True(t, ok, "extension %s with %T child", h, child)
		tr.requireValid(t, n.Child)
	case LeafNode:
		require.NotEmpty(t, n.Value)
	case EmptyNode:
		require.Equal(t, HashHandle(tr.emptyRoot), h, "empty node below the root")
	}
}
