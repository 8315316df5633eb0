/*
Package hashdb implements a content-addressed node database with reference
counting on top of a storage.Store.
*/
package hashdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nspcc-dev/mptdb/pkg/core/storage"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"github.com/nspcc-dev/mptdb/pkg/util"
	"go.uber.org/zap"
)

const (
	// refCountSize is the size of the reference counter ending a record.
	refCountSize = 4
	// trailerSize is the size of the reference list length and the counter.
	trailerSize = 2 + refCountSize
)

var (
	// ErrNotFound is returned when the requested digest is absent.
	ErrNotFound = errors.New("node not found")
	// ErrCorrupted is returned when a stored record can't hold a node.
	ErrCorrupted = errors.New("corrupted node record")
)

// latestRootKey is the DataMPTAux key of the last root saved with PutRoot.
var latestRootKey = []byte{byte(storage.DataMPTAux), 'r'}

// DB is a content-addressed node database. Every record is stored under
// the storage.DataMPT prefix as the node bytes followed by digests of the
// nodes it references, their number (2 bytes LE) and the reference counter
// (4 bytes LE). The counter is the number of references from other records
// plus the ones taken explicitly with Insert or Reference. A record is
// deleted once the counter drops to zero, releasing its own references. All
// writes are cached in memory until Persist is called.
type DB struct {
	mtx    sync.RWMutex
	store  *storage.MemCachedStore
	hasher hash.Hasher
	log    *zap.Logger
}

// record is a decoded node record.
type record struct {
	node []byte
	refs []util.Uint256
	rc   uint32
}

// New returns a DB over the given store. Hasher is mandatory, nil logger
// disables logging.
func New(store storage.Store, hasher hash.Hasher, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{
		store:  storage.NewMemCachedStore(store),
		hasher: hasher,
		log:    log,
	}
}

func makeKey(h util.Uint256) []byte {
	key := make([]byte, 1+util.Uint256Size)
	key[0] = byte(storage.DataMPT)
	copy(key[1:], h[:])
	return key
}

func decodeRecord(data []byte) (record, bool) {
	if len(data) < trailerSize {
		return record{}, false
	}
	var (
		r     = record{rc: binary.LittleEndian.Uint32(data[len(data)-refCountSize:])}
		n     = int(binary.LittleEndian.Uint16(data[len(data)-trailerSize:]))
		nodeN = len(data) - trailerSize - n*util.Uint256Size
	)
	if nodeN < 0 {
		return record{}, false
	}
	r.node = data[:nodeN]
	if n != 0 {
		r.refs = make([]util.Uint256, n)
		for i := range r.refs {
			copy(r.refs[i][:], data[nodeN+i*util.Uint256Size:])
		}
	}
	return r, true
}

func (r record) encode() []byte {
	var (
		nodeN = len(r.node)
		refsN = len(r.refs) * util.Uint256Size
		data  = make([]byte, nodeN+refsN+trailerSize)
	)
	copy(data, r.node)
	for i := range r.refs {
		copy(data[nodeN+i*util.Uint256Size:], r.refs[i][:])
	}
	binary.LittleEndian.PutUint16(data[nodeN+refsN:], uint16(len(r.refs)))
	binary.LittleEndian.PutUint32(data[nodeN+refsN+2:], r.rc)
	return data
}

// Hasher returns the hash function used to address records.
func (db *DB) Hasher() hash.Hasher {
	return db.hasher
}

// get returns the record for h, it's supposed to be called with mutex locked.
func (db *DB) get(h util.Uint256) (record, error) {
	data, err := db.store.Get(makeKey(h))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return record{}, fmt.Errorf("%w: %s", ErrNotFound, h.StringBE())
		}
		return record{}, err
	}
	r, ok := decodeRecord(data)
	if !ok {
		return record{}, fmt.Errorf("%w: %s", ErrCorrupted, h.StringBE())
	}
	return r, nil
}

// Get returns node bytes stored under h.
func (db *DB) Get(h util.Uint256) ([]byte, error) {
	db.mtx.RLock()
	r, err := db.get(h)
	db.mtx.RUnlock()
	if err != nil {
		return nil, err
	}
	nodeReads.Inc()
	return bytes.Clone(r.node), nil
}

// RefCount returns the number of live references to h, zero for absent
// records.
func (db *DB) RefCount(h util.Uint256) (uint32, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	r, err := db.get(h)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	return r.rc, err
}

// Insert stores data referencing the given nodes and returns its digest
// taking one reference to it. If the same content is already present only its
// counter is incremented. Otherwise every node in refs (repeated digests
// count separately) must be present and gets a reference from the new record.
// It's atomic, nothing is changed on error.
func (db *DB) Insert(data []byte, refs ...util.Uint256) (util.Uint256, error) {
	h := db.hasher.Hash(data)

	db.mtx.Lock()
	defer db.mtx.Unlock()

	r, err := db.get(h)
	switch {
	case err == nil:
		r.rc++
		db.put(h, r)
		nodeWrites.Inc()
		return h, nil
	case !errors.Is(err, ErrNotFound):
		return h, err
	}

	children := make(map[util.Uint256]record, len(refs))
	for _, ref := range refs {
		c, ok := children[ref]
		if !ok {
			c, err = db.get(ref)
			if err != nil {
				return h, fmt.Errorf("reference from %s: %w", h.StringBE(), err)
			}
		}
		c.rc++
		children[ref] = c
	}
	for ref, c := range children {
		db.put(ref, c)
	}
	db.put(h, record{node: bytes.Clone(data), refs: slices.Clone(refs), rc: 1})
	nodeWrites.Inc()
	return h, nil
}

// Reference takes one more reference to the stored node h.
func (db *DB) Reference(h util.Uint256) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	r, err := db.get(h)
	if err != nil {
		return err
	}
	r.rc++
	db.put(h, r)
	return nil
}

// put stores record r under h. Records returned by the store can't be
// modified in place, so a new one is always made.
func (db *DB) put(h util.Uint256, r record) {
	db.store.Put(makeKey(h), r.encode())
}

// Remove drops one reference to h. A record left without references is
// deleted and drops references to the nodes it refers to, the same is done
// for them recursively. Removing an unknown digest is a no-op.
func (db *DB) Remove(h util.Uint256) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.remove(h)
}

func (db *DB) remove(h util.Uint256) error {
	for queue := []util.Uint256{h}; len(queue) > 0; queue = queue[1:] {
		cur := queue[0]
		r, err := db.get(cur)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				db.log.Debug("removing unknown node", zap.Stringer("hash", cur))
				continue
			}
			return err
		}
		r.rc--
		if r.rc != 0 {
			db.put(cur, r)
			continue
		}
		db.store.Delete(makeKey(cur))
		nodeRemovals.Inc()
		queue = append(queue, r.refs...)
	}
	return nil
}

// Stats describes node records kept by DB.
type Stats struct {
	// Nodes is the number of distinct records.
	Nodes int
	// Bytes is the total size of node encodings.
	Bytes int
	// References is the sum of all reference counters.
	References uint64
}

// Stats scans all node records including the ones not persisted yet.
func (db *DB) Stats() (Stats, error) {
	var (
		st  Stats
		err error
	)
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	db.store.Seek(storage.SeekRange{Prefix: storage.DataMPT.Bytes()}, func(k, v []byte) bool {
		r, ok := decodeRecord(v)
		if !ok {
			err = fmt.Errorf("%w: %x", ErrCorrupted, k[1:])
			return false
		}
		st.Nodes++
		st.Bytes += len(r.node)
		st.References += uint64(r.rc)
		return true
	})
	return st, err
}

// PutRoot remembers h as the latest root, it's persisted along with nodes.
// The latest root keeps a reference to its record (if there is one, an empty
// trie root is never stored), the reference held for the previous one is
// dropped.
func (db *DB) PutRoot(h util.Uint256) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	prev, held, ok, err := db.latestRoot()
	if err != nil {
		return err
	}
	if ok && prev == h {
		return nil
	}
	r, err := db.get(h)
	switch {
	case err == nil:
		r.rc++
		db.put(h, r)
	case !errors.Is(err, ErrNotFound):
		return err
	}
	val := append(h.BytesBE(), 0)
	if err == nil {
		val[util.Uint256Size] = 1
	}
	db.store.Put(latestRootKey, val)
	if held {
		return db.remove(prev)
	}
	return nil
}

// LatestRoot returns the root saved with PutRoot. The second result is false
// if no root was saved yet.
func (db *DB) LatestRoot() (util.Uint256, bool, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	h, _, ok, err := db.latestRoot()
	return h, ok, err
}

func (db *DB) latestRoot() (h util.Uint256, held bool, ok bool, err error) {
	data, err := db.store.Get(latestRootKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return h, false, false, nil
		}
		return h, false, false, err
	}
	if len(data) != util.Uint256Size+1 {
		return h, false, false, fmt.Errorf("%w: latest root of %d bytes", ErrCorrupted, len(data))
	}
	h, err = util.Uint256DecodeBytesBE(data[:util.Uint256Size])
	if err != nil {
		return h, false, false, fmt.Errorf("%w: latest root: %w", ErrCorrupted, err)
	}
	return h, data[util.Uint256Size] == 1, true, nil
}

// Persist flushes all cached changes to the underlying store and returns
// the number of keys written.
func (db *DB) Persist() (int, error) {
	n, err := db.store.Persist()
	if err != nil {
		return 0, fmt.Errorf("failed to persist nodes: %w", err)
	}
	if n != 0 {
		db.log.Debug("persisted node changes", zap.Int("keys", n))
	}
	return n, nil
}

// Close closes the underlying store dropping unpersisted changes.
func (db *DB) Close() error {
	return db.store.Close()
}
