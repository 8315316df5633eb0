package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/storage/dbconfig"
)

// KeyPrefix is a prefix used to separate different kinds of records kept in
// the same Store.
type KeyPrefix uint8

const (
	// DataMPT is used for trie node records.
	DataMPT KeyPrefix = 0x03
	// DataMPTAux is used for auxiliary trie data (known roots).
	DataMPTAux KeyPrefix = 0x04
)

// SeekRange selects the keys visited by Store.Seek: all keys starting with
// Prefix whose remainder is not less than Start. Both may be empty.
type SeekRange struct {
	Prefix []byte
	Start  []byte
}

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

// Store is the underlying KV backend for the trie node database.
type Store interface {
	Get([]byte) ([]byte, error)
	// PutChangeSet atomically applies the change set, nil values are
	// deletions.
	PutChangeSet(puts map[string][]byte) error
	// Seek calls f for every key in rng in ascending order until f returns
	// false. Key and value are only valid until f returns and must not be
	// modified.
	Seek(rng SeekRange, f func(k, v []byte) bool)
	Close() error
}

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// start returns the first key of the range.
func (r SeekRange) start() []byte {
	return append(bytes.Clone(r.Prefix), r.Start...)
}

// contains reports whether key belongs to the range.
func (r SeekRange) contains(key []byte) bool {
	return bytes.HasPrefix(key, r.Prefix) && bytes.Compare(key[len(r.Prefix):], r.Start) >= 0
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	switch cfg.Type {
	case dbconfig.LevelDB:
		return NewLevelDBStore(cfg.LevelDBOptions)
	case dbconfig.InMemoryDB:
		return NewMemoryStore(), nil
	case dbconfig.BoltDB:
		return NewBoltDBStore(cfg.BoltDBOptions)
	case dbconfig.BadgerDB:
		return NewBadgerDBStore(cfg.BadgerDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
}
