package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// badRW always fails.
type badRW struct{}

func (badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func (w badRW) Read(p []byte) (int, error) {
	return w.Write(p)
}

func TestBinWriter(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteB(0xa5)
	bw.WriteBool(true)
	bw.WriteBool(false)
	bw.WriteU16LE(0xbabe)
	bw.WriteVarBytes([]byte{1, 2, 3})
	bw.WriteBytes([]byte{0xff})
	require.NoError(t, bw.Err)
	require.Equal(t, 10, bw.Len())
	require.Equal(t, []byte{0xa5, 1, 0, 0xbe, 0xba, 3, 1, 2, 3, 0xff}, bw.Bytes())

	br := NewBinReaderFromBuf(bw.Bytes())
	require.Equal(t, byte(0xa5), br.ReadB())
	require.True(t, br.ReadBool())
	require.False(t, br.ReadBool())
	require.Equal(t, uint16(0xbabe), br.ReadU16LE())
	require.Equal(t, []byte{1, 2, 3}, br.ReadVarBytes())
	var last [1]byte
	br.ReadBytes(last[:])
	require.Equal(t, byte(0xff), last[0])
	br.EnsureEOF()
	require.NoError(t, br.Err)
}

func TestVarUint(t *testing.T) {
	testCases := map[uint64][]byte{
		0:             {0x00},
		0xfc:          {0xfc},
		0xfd:          {0xfd, 0xfd, 0x00},
		1000:          {0xfd, 0xe8, 0x03},
		0xffff:        {0xfd, 0xff, 0xff},
		100000:        {0xfe, 0xa0, 0x86, 0x01, 0x00},
		0xffffffff:    {0xfe, 0xff, 0xff, 0xff, 0xff},
		1000000000000: {0xff, 0x00, 0x10, 0xa5, 0xd4, 0xe8, 0x00, 0x00, 0x00},
	}
	for val, enc := range testCases {
		bw := NewBufBinWriter()
		bw.WriteVarUint(val)
		require.NoError(t, bw.Err)
		require.Equal(t, enc, bw.Bytes(), "%d", val)

		br := NewBinReaderFromBuf(enc)
		require.Equal(t, val, br.ReadVarUint())
		require.NoError(t, br.Err)
	}
	// Bytes of the previous long value must not leak into a shorter one.
	br := NewBinReaderFromBuf([]byte{0xff, 1, 2, 3, 4, 5, 6, 7, 8, 0xfd, 0x01, 0x00})
	require.Equal(t, uint64(0x0807060504030201), br.ReadVarUint())
	require.Equal(t, uint64(1), br.ReadVarUint())
}

func TestReadVarBytes(t *testing.T) {
	t.Run("too big", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{3, 1, 2, 3})
		require.Nil(t, br.ReadVarBytes(2))
		require.ErrorIs(t, br.Err, ErrTooBig)
	})
	t.Run("truncated", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{3, 1, 2})
		require.Nil(t, br.ReadVarBytes())
		require.Error(t, br.Err)
	})
	t.Run("empty", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{0})
		require.Equal(t, []byte{}, br.ReadVarBytes())
		require.NoError(t, br.Err)
	})
}

func TestEnsureEOF(t *testing.T) {
	br := NewBinReaderFromBuf([]byte{1, 2})
	br.ReadB()
	br.EnsureEOF()
	require.ErrorIs(t, br.Err, ErrTrailingData)

	br = NewBinReaderFromBuf(nil)
	br.ReadB()
	require.Error(t, br.Err)
	br.EnsureEOF() // keeps the first error
	require.False(t, errors.Is(br.Err, ErrTrailingData))
}

func TestStickyErrors(t *testing.T) {
	w := NewBinWriterFromIO(badRW{})
	w.WriteB(1)
	require.Error(t, w.Err)
	first := w.Err
	w.WriteVarBytes([]byte{1, 2})
	w.WriteU16LE(1)
	require.Equal(t, first, w.Err)

	r := NewBinReaderFromIO(badRW{})
	require.Equal(t, byte(0), r.ReadB())
	require.Error(t, r.Err)
	require.Equal(t, uint16(0), r.ReadU16LE())
	require.Equal(t, uint64(0), r.ReadVarUint())
	require.Nil(t, r.ReadVarBytes())
	require.False(t, r.ReadBool())

	bw := NewBufBinWriter()
	bw.Err = errors.New("failed")
	require.Nil(t, bw.Bytes())
}
