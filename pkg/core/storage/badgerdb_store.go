package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/nspcc-dev/mptdb/pkg/core/storage/dbconfig"
)

// BadgerDBStore is the storage implementation backed by BadgerDB.
type BadgerDBStore struct {
	db *badger.DB
}

// NewBadgerDBStore returns a new BadgerDBStore object that will
// initialize the database found at the given path.
func NewBadgerDBStore(cfg dbconfig.BadgerDBOptions) (*BadgerDBStore, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithReadOnly(cfg.ReadOnly).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB instance: %w", err)
	}
	return &BadgerDBStore{db: db}, nil
}

// Get implements the Store interface.
func (b *BadgerDBStore) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = ErrKeyNotFound
	}
	return val, err
}

// PutChangeSet implements the Store interface.
func (b *BadgerDBStore) PutChangeSet(puts map[string][]byte) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	var err error
	for k, v := range puts {
		if v != nil {
			err = wb.Set([]byte(k), v)
		} else {
			err = wb.Delete([]byte(k))
		}
		if err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Seek implements the Store interface.
func (b *BadgerDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = rng.Prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(rng.start()); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !f(item.KeyCopy(nil), v) {
				break
			}
		}
		return nil
	})
}

// Close implements the Store interface.
func (b *BadgerDBStore) Close() error {
	return b.db.Close()
}
