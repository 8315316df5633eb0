package random

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	keys := Keys(20, 3, []byte{0x00, 0x10, 0x11})
	require.Len(t, keys, 20)
	seen := make(map[string]bool)
	for _, k := range keys {
		require.LessOrEqual(t, len(k), 3)
		require.False(t, seen[string(k)])
		seen[string(k)] = true
	}
}

func TestBytesAndString(t *testing.T) {
	require.Len(t, Bytes(10), 10)
	s := String(7)
	require.Len(t, s, 7)
	for _, c := range s {
		require.True(t, c >= 'A' && c < 'Z')
	}
	n := Int(3, 5)
	require.True(t, n >= 3 && n < 5)
}
