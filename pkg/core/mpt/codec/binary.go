package codec

import (
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/io"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

// Hex-prefix flags of the first key nibble.
const (
	flagExtension byte = 0
	flagLeaf      byte = 2
	flagOdd       byte = 1
)

// MaxKeyLength is the maximum length of an encoded partial key.
const MaxKeyLength = io.MaxArraySize

// Binary is the default codec. Every node starts with its type byte:
//
//	empty:     0x00
//	leaf:      0x01 | hex-prefix key | value
//	extension: 0x02 | hex-prefix key | child digest
//	branch:    0x03 | u16 LE children bitmap | digests of present children
//	           | value presence byte | value
//
// Keys and values are written as var-bytes.
type Binary struct{}

var _ Codec = Binary{}

// EmptyNode implements Codec interface.
func (Binary) EmptyNode() []byte {
	return []byte{byte(EmptyT)}
}

// Encode implements Codec interface.
func (Binary) Encode(n Node) []byte {
	w := io.NewBufBinWriter()
	w.WriteB(byte(n.Type()))
	switch n := n.(type) {
	case Empty:
	case Leaf:
		w.WriteVarBytes(encodeHexPrefix(n.Key, flagLeaf))
		w.WriteVarBytes(n.Value)
	case Extension:
		w.WriteVarBytes(encodeHexPrefix(n.Key, flagExtension))
		w.WriteBytes(n.Child[:])
	case Branch:
		var mask uint16
		for i := range n.Children {
			if n.Children[i] != nil {
				mask |= 1 << i
			}
		}
		w.WriteU16LE(mask)
		for i := range n.Children {
			if n.Children[i] != nil {
				w.WriteBytes(n.Children[i][:])
			}
		}
		w.WriteBool(len(n.Value) != 0)
		if len(n.Value) != 0 {
			w.WriteVarBytes(n.Value)
		}
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
	return w.Bytes()
}

// Decode implements Codec interface.
func (Binary) Decode(data []byte) (Node, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrDecoding)
	}
	r := io.NewBinReaderFromBuf(data)
	var (
		n   Node
		err error
	)
	switch t := NodeType(r.ReadB()); t {
	case EmptyT:
		n = Empty{}
	case LeafT:
		n, err = decodeLeaf(r)
	case ExtensionT:
		n, err = decodeExtension(r)
	case BranchT:
		n, err = decodeBranch(r)
	default:
		return nil, fmt.Errorf("%w: unknown node type %d", ErrDecoding, t)
	}
	if err != nil {
		return nil, err
	}
	r.EnsureEOF()
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecoding, r.Err)
	}
	return n, nil
}

func decodeLeaf(r *io.BinReader) (Node, error) {
	key, err := decodeHexPrefix(r.ReadVarBytes(MaxKeyLength), flagLeaf)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: leaf key: %w", ErrDecoding, r.Err)
	}
	if err != nil {
		return nil, err
	}
	value := r.ReadVarBytes()
	if r.Err != nil {
		return nil, fmt.Errorf("%w: leaf value: %w", ErrDecoding, r.Err)
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty leaf value", ErrDecoding)
	}
	return Leaf{Key: key, Value: value}, nil
}

func decodeExtension(r *io.BinReader) (Node, error) {
	key, err := decodeHexPrefix(r.ReadVarBytes(MaxKeyLength), flagExtension)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: extension key: %w", ErrDecoding, r.Err)
	}
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty extension key", ErrDecoding)
	}
	var e = Extension{Key: key}
	e.Child.DecodeBinary(r)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: extension child: %w", ErrDecoding, r.Err)
	}
	return e, nil
}

func decodeBranch(r *io.BinReader) (Node, error) {
	var (
		b     Branch
		count int
	)
	mask := r.ReadU16LE()
	for i := range b.Children {
		if mask&(1<<i) != 0 {
			h := new(util.Uint256)
			h.DecodeBinary(r)
			b.Children[i] = h
			count++
		}
	}
	if r.ReadBool() {
		b.Value = r.ReadVarBytes()
		if r.Err == nil && len(b.Value) == 0 {
			return nil, fmt.Errorf("%w: empty branch value", ErrDecoding)
		}
		count++
	}
	if r.Err != nil {
		return nil, fmt.Errorf("%w: branch: %w", ErrDecoding, r.Err)
	}
	if count < 2 {
		return nil, fmt.Errorf("%w: branch with %d entries", ErrDecoding, count)
	}
	return b, nil
}

// encodeHexPrefix packs nibbles into bytes prepending them with a flag
// nibble. Odd-length keys have the first nibble packed along with the flag.
func encodeHexPrefix(nibbles []byte, flag byte) []byte {
	res := make([]byte, len(nibbles)/2+1)
	if len(nibbles)%2 == 1 {
		res[0] = (flag|flagOdd)<<4 | nibbles[0]
		nibbles = nibbles[1:]
	} else {
		res[0] = flag << 4
	}
	for i := 0; i < len(nibbles); i += 2 {
		res[1+i/2] = nibbles[i]<<4 | nibbles[i+1]
	}
	return res
}

// decodeHexPrefix unpacks hex-prefix encoded key checking its flag.
func decodeHexPrefix(data []byte, flag byte) ([]byte, error) {
	if len(data) == 0 {
		// Reader error (if any) is handled by the caller.
		return nil, fmt.Errorf("%w: empty key encoding", ErrDecoding)
	}
	var (
		hi  = data[0] >> 4
		lo  = data[0] & 0x0f
		res []byte
	)
	switch hi {
	case flag:
		if lo != 0 {
			return nil, fmt.Errorf("%w: non-zero padding nibble", ErrDecoding)
		}
		res = make([]byte, 0, 2*(len(data)-1))
	case flag | flagOdd:
		res = make([]byte, 0, 2*len(data)-1)
		res = append(res, lo)
	default:
		return nil, fmt.Errorf("%w: invalid key flag %d", ErrDecoding, hi)
	}
	for _, b := range data[1:] {
		res = append(res, b>>4, b&0x0f)
	}
	return res, nil
}
