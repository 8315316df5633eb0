package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeDirForFile(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "a", "b", "trie.db")
		require.NoError(t, MakeDirForFile(p, "store"))
		require.NoError(t, os.WriteFile(p, []byte{1}, 0o644))
	})
	t.Run("existing", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "trie.db")
		require.NoError(t, MakeDirForFile(p, "store"))
	})
	t.Run("parent is a file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		err := MakeDirForFile(filepath.Join(p, "trie.db"), "store")
		require.ErrorContains(t, err, "could not create dir for store")
	})
}
