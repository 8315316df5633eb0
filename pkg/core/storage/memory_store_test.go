package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStoreForTesting(t testing.TB) Store {
	return NewMemoryStore()
}

func TestKeyNotExist(t *testing.T) {
	var (
		s   = NewMemoryStore()
		key = []byte("sparse")
	)

	_, err := s.Get(key)
	assert.NotNil(t, err)
	assert.Equal(t, err.Error(), "key not found")
	require.NoError(t, s.Close())
}

func TestMemoryStoreNilIsDeletion(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.PutChangeSet(map[string][]byte{"a": {1}, "b": {2}}))
	require.NoError(t, s.PutChangeSet(map[string][]byte{"a": nil}))

	var keys []string
	s.Seek(SeekRange{}, func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.Equal(t, []string{"b"}, keys)
}
