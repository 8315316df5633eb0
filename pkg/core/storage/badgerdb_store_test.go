package storage

import (
	"testing"

	"github.com/nspcc-dev/mptdb/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func newBadgerDBForTesting(t testing.TB) Store {
	s, err := NewBadgerDBStore(dbconfig.BadgerDBOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	return s
}
