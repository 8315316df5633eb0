package mpt

import (
	"errors"
	"sync"
	"testing"

	"github.com/nspcc-dev/mptdb/internal/random"
	"github.com/stretchr/testify/require"
)

func TestTrieDB(t *testing.T) {
	tr, db := newTestTrie(t)
	keys := random.Keys(50, 4, []byte{0x00, 0x01, 0x10, 0x11})
	expected := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v := random.Bytes(random.Int(1, 10))
		require.NoError(t, tr.Insert(k, v))
		expected[string(k)] = v
	}
	r := mustRoot(t, tr)

	ro := NewTrieDB(db, r, Config{})
	require.Equal(t, r, ro.Root())
	require.False(t, ro.IsEmpty())
	require.True(t, NewTrieDB(db, tr.EmptyRoot(), Config{}).IsEmpty())

	t.Run("get", func(t *testing.T) {
		for k, v := range expected {
			actual, err := ro.Get([]byte(k))
			require.NoError(t, err)
			require.Equal(t, v, actual)
		}
		ok, err := ro.Contains([]byte{0xff})
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("concurrent", func(t *testing.T) {
		cache, err := NewNodeCache(8)
		require.NoError(t, err)
		cached := NewTrieDB(db, r, Config{Cache: cache})

		var (
			wg   sync.WaitGroup
			errs = make(chan error, 8)
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k, v := range expected {
					actual, err := cached.Get([]byte(k))
					if err != nil {
						errs <- err
						return
					}
					if string(actual) != string(v) {
						errs <- errors.New("unexpected value")
						return
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
	t.Run("missing", func(t *testing.T) {
		ro := NewTrieDB(newTestDB(), r, Config{})
		_, err := ro.Get([]byte{0x01})
		var mErr *MissingNodeError
		require.True(t, errors.As(err, &mErr))
		require.Equal(t, r, mErr.Hash)
		require.Error(t, ro.Walk(func(k, v []byte) bool { return true }))
	})
}

func TestNodeCache(t *testing.T) {
	_, err := NewNodeCache(0)
	require.Error(t, err)

	var c *NodeCache
	c.Add(random.Uint256(), EmptyNode{})
	_, ok := c.Get(random.Uint256())
	require.False(t, ok)
	require.Equal(t, 0, c.Len())

	c, err = NewNodeCache(1)
	require.NoError(t, err)
	h1, h2 := random.Uint256(), random.Uint256()
	l := LeafNode{Key: NewNibbleSlice([]byte{1}), Value: []byte{2}}
	c.Add(h1, l)
	n, ok := c.Get(h1)
	require.True(t, ok)
	require.Equal(t, l, n)
	c.Add(h2, EmptyNode{})
	_, ok = c.Get(h1)
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
}

func TestMode_String(t *testing.T) {
	require.Equal(t, "latest", ModeLatest.String())
	require.Equal(t, "all", ModeAll.String())
}
