package mpt

import (
	"math/rand"
	"testing"

	"github.com/nspcc-dev/mptdb/internal/random"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"github.com/stretchr/testify/require"
)

func newTestSecTrie(t *testing.T) *SecTrieDBMut {
	tr, _ := newTestTrie(t)
	return NewSecTrieDBMut(tr)
}

func TestSecTrieDBMut(t *testing.T) {
	s := newTestSecTrie(t)
	require.True(t, s.IsEmpty())
	require.Equal(t, s.Inner().EmptyRoot(), mustRoot(t, s))

	require.NoError(t, s.Insert([]byte("key"), []byte("value")))
	require.False(t, s.IsEmpty())
	v, err := s.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), v)
	ok, err := s.Contains([]byte("key"))
	require.NoError(t, err)
	require.True(t, ok)

	// The inner trie is keyed by digests.
	hk := hash.Keccak256([]byte("key"))
	s.Inner().testHas(t, hk[:], []byte("value"))
	s.Inner().testHas(t, []byte("key"), nil)

	require.NoError(t, s.Insert([]byte("key"), nil))
	ok, err = s.Contains([]byte("key"))
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, s.Remove([]byte("absent")))
	require.True(t, s.IsEmpty())
}

func TestSecTrieDBMut_Equivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	keys := random.Keys(30, 4, []byte{0x00, 0x01, 0x10})
	pairs := make([]kv, len(keys))
	for i, k := range keys {
		pairs[i] = kv{k, random.Bytes(random.Int(1, 10))}
	}

	build := func(pairs []kv) *SecTrieDBMut {
		s := newTestSecTrie(t)
		for _, p := range pairs {
			require.NoError(t, s.Insert(p.key, p.value))
		}
		return s
	}
	expected := mustRoot(t, build(pairs))
	require.NotEqual(t, rootOf(t, pairs), expected)
	for i := 0; i < 5; i++ {
		require.Equal(t, expected, mustRoot(t, build(shuffled(rnd, pairs))))
	}

	s := build(pairs)
	for _, p := range pairs[:10] {
		require.NoError(t, s.Remove(p.key))
	}
	require.Equal(t, mustRoot(t, build(pairs[10:])), mustRoot(t, s))
	s.Inner().requireValid(t, s.Inner().root)
}

func TestSecTrieDB(t *testing.T) {
	s := newTestSecTrie(t)
	require.NoError(t, s.Insert([]byte("a"), []byte("1")))
	require.NoError(t, s.Insert([]byte("b"), []byte("2")))
	r := mustRoot(t, s)

	ro := NewSecTrieDB(s.Inner().db, r, Config{})
	require.Equal(t, r, ro.Root())
	v, err := ro.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
	ok, err := ro.Contains([]byte("c"))
	require.NoError(t, err)
	require.False(t, ok)

	var n int
	require.NoError(t, ro.Walk(func(k, v []byte) bool {
		require.Len(t, k, 32)
		n++
		return true
	}))
	require.Equal(t, 2, n)
}
