package io

import (
	"bytes"
	"encoding/binary"
	"io"
)

// BinWriter is a convenient wrapper around an io.Writer and err object.
// Once a write fails, all subsequent writes are no-ops and Err keeps the
// first error.
type BinWriter struct {
	w   io.Writer
	Err error
	buf [9]byte
}

// NewBinWriterFromIO makes a BinWriter from io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// BufBinWriter is a BinWriter writing into its own buffer, the result is
// available via Bytes.
type BufBinWriter struct {
	*BinWriter
	data bytes.Buffer
}

// NewBufBinWriter makes a BufBinWriter with an empty byte buffer.
func NewBufBinWriter() *BufBinWriter {
	b := new(BufBinWriter)
	b.BinWriter = NewBinWriterFromIO(&b.data)
	return b
}

// Len returns the number of bytes written so far.
func (bw *BufBinWriter) Len() int {
	return bw.data.Len()
}

// Bytes returns the written data or nil if any write failed.
func (bw *BufBinWriter) Bytes() []byte {
	if bw.Err != nil {
		return nil
	}
	return bw.data.Bytes()
}

// WriteBytes writes b as is.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(b byte) {
	w.buf[0] = b
	w.WriteBytes(w.buf[:1])
}

// WriteBool writes b as a 0 or 1 byte.
func (w *BinWriter) WriteBool(b bool) {
	if b {
		w.WriteB(1)
	} else {
		w.WriteB(0)
	}
}

// WriteU16LE writes a little-endian uint16.
func (w *BinWriter) WriteU16LE(u16 uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], u16)
	w.WriteBytes(w.buf[:2])
}

// WriteVarUint writes val using the shortest variable-length form: values
// below 0xfd take one byte, larger ones are prefixed with 0xfd, 0xfe or 0xff
// followed by 2, 4 or 8 little-endian bytes.
func (w *BinWriter) WriteVarUint(val uint64) {
	var n int
	switch {
	case val < 0xfd:
		w.buf[0] = byte(val)
		n = 1
	case val <= 0xffff:
		w.buf[0] = 0xfd
		binary.LittleEndian.PutUint16(w.buf[1:], uint16(val))
		n = 3
	case val <= 0xffffffff:
		w.buf[0] = 0xfe
		binary.LittleEndian.PutUint32(w.buf[1:], uint32(val))
		n = 5
	default:
		w.buf[0] = 0xff
		binary.LittleEndian.PutUint64(w.buf[1:], val)
		n = 9
	}
	w.WriteBytes(w.buf[:n])
}

// WriteVarBytes writes b prefixed with its length.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}
