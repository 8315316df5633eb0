package codec

import (
	"testing"

	"github.com/nspcc-dev/mptdb/pkg/util"
	"github.com/stretchr/testify/require"
)

func testEncodeDecode(t *testing.T, n Node) []byte {
	data := Binary{}.Encode(n)
	actual, err := Binary{}.Decode(data)
	require.NoError(t, err)
	require.Equal(t, n, actual)
	return data
}

func TestBinary_Nodes(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		data := testEncodeDecode(t, Empty{})
		require.Equal(t, Binary{}.EmptyNode(), data)
	})
	t.Run("leaf", func(t *testing.T) {
		data := testEncodeDecode(t, Leaf{Key: []byte{1, 2, 3}, Value: []byte("v")})
		require.Equal(t, []byte{0x01, 0x02, 0x31, 0x23, 0x01, 'v'}, data)

		data = testEncodeDecode(t, Leaf{Key: []byte{1, 2}, Value: []byte("v")})
		require.Equal(t, []byte{0x01, 0x02, 0x20, 0x12, 0x01, 'v'}, data)

		testEncodeDecode(t, Leaf{Key: []byte{}, Value: []byte("v")})
	})
	t.Run("extension", func(t *testing.T) {
		child := util.Uint256{1, 2, 3}
		data := testEncodeDecode(t, Extension{Key: []byte{0xa}, Child: child})
		require.Equal(t, append([]byte{0x02, 0x01, 0x1a}, child[:]...), data)
	})
	t.Run("branch", func(t *testing.T) {
		var b Branch
		b.Children[0] = &util.Uint256{1}
		b.Children[15] = &util.Uint256{2}
		data := testEncodeDecode(t, b)
		require.Equal(t, 1+2+2*util.Uint256Size+1, len(data))
		require.Equal(t, []byte{0x03, 0x01, 0x80}, data[:3])

		b.Value = []byte("value")
		testEncodeDecode(t, b)

		var withValue Branch
		withValue.Children[7] = &util.Uint256{3}
		withValue.Value = []byte{1}
		testEncodeDecode(t, withValue)
	})
}

func TestBinary_Canonical(t *testing.T) {
	// Leaf and extension with the same key must differ.
	l := Binary{}.Encode(Leaf{Key: []byte{1}, Value: []byte{1}})
	e := Binary{}.Encode(Extension{Key: []byte{1}})
	require.NotEqual(t, l[1:3], e[1:3])

	// Nil and empty branch values are the same.
	var b1, b2 Branch
	b1.Children[1], b1.Children[2] = &util.Uint256{}, &util.Uint256{}
	b2.Children[1], b2.Children[2] = &util.Uint256{}, &util.Uint256{}
	b2.Value = []byte{}
	require.Equal(t, Binary{}.Encode(b1), Binary{}.Encode(b2))
}

func TestBinary_DecodeInvalid(t *testing.T) {
	child := make([]byte, util.Uint256Size)
	testCases := map[string][]byte{
		"no data":                 {},
		"unknown type":            {0x04},
		"empty with trailing":     {0x00, 0x00},
		"leaf truncated":          {0x01, 0x02, 0x20},
		"leaf empty value":        {0x01, 0x01, 0x20, 0x00},
		"leaf extension flag":     {0x01, 0x01, 0x00, 0x01, 'v'},
		"leaf bad padding":        {0x01, 0x01, 0x21, 0x01, 'v'},
		"leaf empty key encoding": {0x01, 0x00, 0x01, 'v'},
		"leaf trailing":           {0x01, 0x01, 0x20, 0x01, 'v', 0x00},
		"extension empty key":     append([]byte{0x02, 0x01, 0x00}, child...),
		"extension leaf flag":     append([]byte{0x02, 0x01, 0x31}, child...),
		"extension short child":   {0x02, 0x01, 0x11, 0x01},
		"branch one child":        append([]byte{0x03, 0x01, 0x00}, append(child, 0x00)...),
		"branch truncated":        {0x03, 0x03, 0x00, 0x01},
		"branch empty value":      append([]byte{0x03, 0x01, 0x00}, append(child, 0x01, 0x00)...),
		"huge leaf value":         {0x01, 0x01, 0x20, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}
	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Binary{}.Decode(data)
			require.ErrorIs(t, err, ErrDecoding)
		})
	}
}

func TestHexPrefix(t *testing.T) {
	for _, nibbles := range [][]byte{{}, {0}, {0xf}, {1, 2}, {1, 2, 3}, {0, 0, 0, 0}} {
		for _, flag := range []byte{flagLeaf, flagExtension} {
			enc := encodeHexPrefix(nibbles, flag)
			require.Equal(t, len(nibbles)/2+1, len(enc))
			dec, err := decodeHexPrefix(enc, flag)
			require.NoError(t, err)
			require.Equal(t, nibbles, dec)
		}
	}
}

func TestNodeType_String(t *testing.T) {
	require.Equal(t, "empty", EmptyT.String())
	require.Equal(t, "leaf", LeafT.String())
	require.Equal(t, "extension", ExtensionT.String())
	require.Equal(t, "branch", BranchT.String())
	require.Equal(t, "unknown", NodeType(0x42).String())
}
