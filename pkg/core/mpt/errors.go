package mpt

import (
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/mpt/codec"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

// ErrDecoding is returned (wrapped) when node bytes fetched from the
// BackingStore can't be decoded.
var ErrDecoding = codec.ErrDecoding

// MissingNodeError is returned when the BackingStore has no node the trie
// refers to.
type MissingNodeError struct {
	Hash util.Uint256
	Err  error
}

// Error implements error interface.
func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %s: %v", e.Hash.StringBE(), e.Err)
}

// Unwrap returns the BackingStore error.
func (e *MissingNodeError) Unwrap() error {
	return e.Err
}
