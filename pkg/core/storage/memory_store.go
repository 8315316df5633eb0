package storage

import (
	"bytes"
	"slices"
	"sync"
)

// MemoryStore is an in-memory implementation of a Store, mainly
// used for testing and for throwaway tries.
type MemoryStore struct {
	mut sync.RWMutex
	mem map[string][]byte
}

// NewMemoryStore creates a new MemoryStore object.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mem: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if val, ok := s.mem[string(key)]; ok && val != nil {
		return val, nil
	}
	return nil, ErrKeyNotFound
}

// PutChangeSet implements the Store interface. Never returns an error.
func (s *MemoryStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		if v == nil {
			delete(s.mem, k)
		} else {
			s.mem[k] = v
		}
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface.
func (s *MemoryStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	s.seek(rng, f)
	s.mut.RUnlock()
}

// seek is an internal unlocked implementation of Seek. It skips nil values
// (deletion markers of the MemCachedStore layer).
func (s *MemoryStore) seek(rng SeekRange, f func(k, v []byte) bool) {
	for _, kv := range filterKV(s.mem, rng, false) {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// KeyValue represents a key-value pair.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// filterKV returns pairs from m within rng sorted by key. Nil values are
// included only if withDeleted is set.
func filterKV(m map[string][]byte, rng SeekRange, withDeleted bool) []KeyValue {
	var res []KeyValue
	for k, v := range m {
		if (v != nil || withDeleted) && rng.contains([]byte(k)) {
			res = append(res, KeyValue{Key: []byte(k), Value: v})
		}
	}
	sortKV(res)
	return res
}

func sortKV(kvs []KeyValue) {
	slices.SortFunc(kvs, func(a, b KeyValue) int {
		return bytes.Compare(a.Key, b.Key)
	})
}

// Close implements Store interface and clears up memory. Never returns an
// error.
func (s *MemoryStore) Close() error {
	s.mut.Lock()
	s.mem = nil
	s.mut.Unlock()
	return nil
}
