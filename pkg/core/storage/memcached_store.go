package storage

import (
	"bytes"
	"sync"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	MemoryStore

	// plock protects Persist from double entrance.
	plock sync.Mutex
	// flushing is the batch being written by Persist, it's visible to
	// readers until the lower Store has it.
	flushing map[string][]byte
	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	val, ok := s.mem[string(key)]
	if !ok {
		val, ok = s.flushing[string(key)]
	}
	s.mut.RUnlock()
	if !ok {
		return s.ps.Get(key)
	}
	if val == nil {
		return nil, ErrKeyNotFound
	}
	return val, nil
}

// Put puts new KV pair into the store.
func (s *MemCachedStore) Put(key, value []byte) {
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	s.mut.Lock()
	s.mem[string(key)] = v
	s.mut.Unlock()
}

// Delete drops KV pair from the store. Never returns an error.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	s.mem[string(key)] = nil
	s.mut.Unlock()
}

// PutChangeSet implements the Store interface, the change set is cached
// until the next Persist.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		s.mem[k] = v
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached changes take precedence over
// the persistent store contents.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	cached := filterKV(s.mem, rng, true)
	for _, kv := range filterKV(s.flushing, rng, true) {
		if _, ok := s.mem[string(kv.Key)]; !ok {
			cached = append(cached, kv)
		}
	}
	s.mut.RUnlock()

	var (
		res  = make([]KeyValue, 0, len(cached))
		seen = make(map[string]bool, len(cached))
	)
	for _, kv := range cached {
		seen[string(kv.Key)] = true
		if kv.Value != nil {
			res = append(res, kv)
		}
	}
	s.ps.Seek(rng, func(k, v []byte) bool {
		if !seen[string(k)] {
			res = append(res, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		}
		return true
	})
	sortKV(res)
	for _, kv := range res {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// Len returns the number of cached (not yet persisted) changes.
func (s *MemCachedStore) Len() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.mem)
}

// Persist flushes all the changes made into the (supposedly) persistent
// underlying store. It returns the number of keys flushed. Changes being
// flushed stay visible to Get and Seek until the lower store has them.
func (s *MemCachedStore) Persist() (int, error) {
	s.plock.Lock()
	defer s.plock.Unlock()

	s.mut.Lock()
	keys := len(s.mem)
	if keys == 0 {
		s.mut.Unlock()
		return 0, nil
	}
	batch := s.mem
	s.flushing = batch
	s.mem = make(map[string][]byte, keys)
	s.mut.Unlock()

	err := s.ps.PutChangeSet(batch)

	s.mut.Lock()
	defer s.mut.Unlock()
	if err != nil {
		// Merge the failed batch back, newer changes win.
		for k, v := range batch {
			if _, ok := s.mem[k]; !ok {
				s.mem[k] = v
			}
		}
		keys = 0
	}
	s.flushing = nil
	return keys, err
}

// Close implements Store interface, clears up memory and closes the lower layer
// Store.
func (s *MemCachedStore) Close() error {
	// It's always successful.
	_ = s.MemoryStore.Close()
	s.mut.Lock()
	s.flushing = nil
	s.mut.Unlock()
	return s.ps.Close()
}
