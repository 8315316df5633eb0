package mpt

import "fmt"

// NibbleSlice is a view over a byte buffer addressed in 4-bit nibbles, high
// nibble of every byte goes first. Slicing never copies the buffer.
type NibbleSlice struct {
	data   []byte
	offset int
	length int
}

// NewNibbleSlice returns a view over all nibbles of data.
func NewNibbleSlice(data []byte) NibbleSlice {
	return NibbleSlice{data: data, length: 2 * len(data)}
}

// NibbleSliceFromNibbles packs nibbles (one per byte, only the low half of
// every byte is used) into a new NibbleSlice.
func NibbleSliceFromNibbles(nibbles []byte) NibbleSlice {
	var (
		offset = len(nibbles) % 2
		data   = make([]byte, (len(nibbles)+offset)/2)
	)
	for i, n := range nibbles {
		j := offset + i
		if j%2 == 0 {
			data[j/2] |= n << 4
		} else {
			data[j/2] |= n & 0x0f
		}
	}
	return NibbleSlice{data: data, offset: offset, length: len(nibbles)}
}

// Len returns the number of nibbles in s.
func (s NibbleSlice) Len() int {
	return s.length
}

// IsEmpty returns true if s has no nibbles.
func (s NibbleSlice) IsEmpty() bool {
	return s.length == 0
}

// At returns i-th nibble of s.
func (s NibbleSlice) At(i int) byte {
	if i < 0 || i >= s.length {
		panic(fmt.Sprintf("nibble index out of range [%d] with length %d", i, s.length))
	}
	j := s.offset + i
	if j%2 == 0 {
		return s.data[j/2] >> 4
	}
	return s.data[j/2] & 0x0f
}

// Mid returns s without the first i nibbles.
func (s NibbleSlice) Mid(i int) NibbleSlice {
	if i < 0 || i > s.length {
		panic(fmt.Sprintf("nibble slice bounds out of range [%d:] with length %d", i, s.length))
	}
	return NibbleSlice{data: s.data, offset: s.offset + i, length: s.length - i}
}

// Left returns the first n nibbles of s.
func (s NibbleSlice) Left(n int) NibbleSlice {
	if n < 0 || n > s.length {
		panic(fmt.Sprintf("nibble slice bounds out of range [:%d] with length %d", n, s.length))
	}
	return NibbleSlice{data: s.data, offset: s.offset, length: n}
}

// CommonPrefix returns the length of the common prefix of s and other.
func (s NibbleSlice) CommonPrefix(other NibbleSlice) int {
	var i int
	for i < s.length && i < other.length && s.At(i) == other.At(i) {
		i++
	}
	return i
}

// StartsWith checks whether prefix is a prefix of s.
func (s NibbleSlice) StartsWith(prefix NibbleSlice) bool {
	return prefix.length <= s.length && s.CommonPrefix(prefix) == prefix.length
}

// Equal checks whether s and other hold the same nibbles.
func (s NibbleSlice) Equal(other NibbleSlice) bool {
	return s.length == other.length && s.StartsWith(other)
}

// ToNibbles returns nibbles of s one per byte.
func (s NibbleSlice) ToNibbles() []byte {
	res := make([]byte, s.length)
	for i := range res {
		res[i] = s.At(i)
	}
	return res
}

// Bytes packs s into bytes, it's only possible for even-length slices.
func (s NibbleSlice) Bytes() ([]byte, bool) {
	if s.length%2 != 0 {
		return nil, false
	}
	res := make([]byte, s.length/2)
	for i := range res {
		res[i] = s.At(2*i)<<4 | s.At(2*i+1)
	}
	return res, true
}

// Clone returns a copy of s not sharing memory with the original buffer.
func (s NibbleSlice) Clone() NibbleSlice {
	return NibbleSliceFromNibbles(s.ToNibbles())
}

// String implements fmt.Stringer.
func (s NibbleSlice) String() string {
	res := make([]byte, s.length)
	for i := range res {
		res[i] = "0123456789abcdef"[s.At(i)]
	}
	return string(res)
}

// concatNibbles returns a new slice holding all nibbles of parts.
func concatNibbles(parts ...NibbleSlice) NibbleSlice {
	var total int
	for _, p := range parts {
		total += p.length
	}
	nibbles := make([]byte, 0, total)
	for _, p := range parts {
		for i := 0; i < p.length; i++ {
			nibbles = append(nibbles, p.At(i))
		}
	}
	return NibbleSliceFromNibbles(nibbles)
}

// singleNibble returns a slice consisting of one nibble n.
func singleNibble(n byte) NibbleSlice {
	return NibbleSliceFromNibbles([]byte{n})
}
