/*
Package hash contains the hash functions used to address trie nodes and to
transform keys of the secure trie.
*/
package hash

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/nspcc-dev/mptdb/pkg/util"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hasher is a deterministic collision-resistant function producing
// fixed-width digests.
type Hasher interface {
	Hash(data []byte) util.Uint256
}

// HasherFunc is an adapter allowing to use ordinary functions as Hasher.
type HasherFunc func(data []byte) util.Uint256

// Hash implements Hasher interface.
func (f HasherFunc) Hash(data []byte) util.Uint256 {
	return f(data)
}

// Hasher names accepted by FromName.
const (
	Sha256Name       = "sha256"
	DoubleSha256Name = "doublesha256"
	Keccak256Name    = "keccak256"
	Blake2b256Name   = "blake2b256"
)

// FromName returns the Hasher with the given (case-insensitive) name.
func FromName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case Sha256Name:
		return HasherFunc(Sha256), nil
	case DoubleSha256Name:
		return HasherFunc(DoubleSha256), nil
	case Keccak256Name, "":
		return HasherFunc(Keccak256), nil
	case Blake2b256Name:
		return HasherFunc(Blake2b256), nil
	default:
		return nil, fmt.Errorf("unknown hash function: %s", name)
	}
}

// Sha256 hashes the incoming byte slice
// using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return sha256.Sum256(data)
}

// DoubleSha256 performs sha256 twice on the given data.
func DoubleSha256(data []byte) util.Uint256 {
	h1 := Sha256(data)
	return Sha256(h1[:])
}

// Keccak256 hashes the incoming byte slice using the legacy (pre-NIST)
// Keccak-256 algorithm.
func Keccak256(data []byte) util.Uint256 {
	var res util.Uint256
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data) // hash.Hash never returns an error on Write.
	h.Sum(res[:0])
	return res
}

// Blake2b256 returns the 256-bit blake2b hash of the input data.
func Blake2b256(data []byte) util.Uint256 {
	return blake2b.Sum256(data)
}
