package io

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxArraySize is the maximum size of a var-bytes field which can be decoded.
const MaxArraySize = 0x1000000

var (
	// ErrTooBig is returned when a length prefix exceeds the allowed maximum.
	ErrTooBig = errors.New("byte-slice is too big")
	// ErrTrailingData is returned by EnsureEOF when the reader is not exhausted.
	ErrTrailingData = errors.New("unexpected trailing data")
)

// BinReader is a convenient wrapper around an io.Reader and err object.
// Once a read fails, all subsequent reads return zero values and Err keeps
// the first error.
type BinReader struct {
	r   io.Reader
	buf [8]byte
	Err error
}

// NewBinReaderFromIO makes a BinReader from io.Reader.
func NewBinReaderFromIO(ior io.Reader) *BinReader {
	return &BinReader{r: ior}
}

// NewBinReaderFromBuf makes a BinReader from byte buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return NewBinReaderFromIO(bytes.NewReader(b))
}

// ReadBytes fills buf from the reader.
func (r *BinReader) ReadBytes(buf []byte) {
	if r.Err != nil {
		return
	}
	_, r.Err = io.ReadFull(r.r, buf)
}

// ReadB reads a single byte.
func (r *BinReader) ReadB() byte {
	r.ReadBytes(r.buf[:1])
	if r.Err != nil {
		return 0
	}
	return r.buf[0]
}

// ReadBool reads a byte and returns true if it's not zero.
func (r *BinReader) ReadBool() bool {
	return r.ReadB() != 0
}

// ReadU16LE reads a little-endian uint16.
func (r *BinReader) ReadU16LE() uint16 {
	r.ReadBytes(r.buf[:2])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

// ReadVarUint reads an integer written by BinWriter.WriteVarUint.
func (r *BinReader) ReadVarUint() uint64 {
	var n int
	switch b := r.ReadB(); b {
	case 0xfd:
		n = 2
	case 0xfe:
		n = 4
	case 0xff:
		n = 8
	default:
		return uint64(b)
	}
	clear(r.buf[:])
	r.ReadBytes(r.buf[:n])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:])
}

// ReadVarBytes reads a length-prefixed byte slice. The length can't exceed
// maxSize (MaxArraySize by default).
func (r *BinReader) ReadVarBytes(maxSize ...int) []byte {
	n := r.ReadVarUint()
	if r.Err != nil {
		return nil
	}
	limit := MaxArraySize
	if len(maxSize) != 0 {
		limit = maxSize[0]
	}
	if n > uint64(limit) {
		r.Err = fmt.Errorf("%w: %d", ErrTooBig, n)
		return nil
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	if r.Err != nil {
		return nil
	}
	return b
}

// EnsureEOF sets Err to ErrTrailingData if there is unread data left in the
// underlying reader.
func (r *BinReader) EnsureEOF() {
	if r.Err != nil {
		return
	}
	var b [1]byte
	n, err := r.r.Read(b[:])
	if n != 0 {
		r.Err = ErrTrailingData
		return
	}
	if err != nil && !errors.Is(err, io.EOF) {
		r.Err = err
	}
}
