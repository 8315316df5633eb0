package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/mptdb/pkg/io"
	"go.etcd.io/bbolt"
)

// Bucket represents bucket used in boltdb to store all the data.
var Bucket = []byte("DB")

var errNoBucket = errors.New("root bucket is missing")

// BoltDBStore keeps all records in a single bucket of a BoltDB file.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens the BoltDB file at cfg.FilePath. A writable store gets
// its directory and bucket created, a read-only one must already have them.
func NewBoltDBStore(cfg dbconfig.BoltDBOptions) (*BoltDBStore, error) {
	opts := *bbolt.DefaultOptions
	opts.ReadOnly = cfg.ReadOnly
	if !cfg.ReadOnly {
		if err := io.MakeDirForFile(cfg.FilePath, "BoltDB"); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(cfg.FilePath, 0o600, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB instance: %w", err)
	}
	if cfg.ReadOnly {
		err = db.View(func(tx *bbolt.Tx) error {
			if tx.Bucket(Bucket) == nil {
				return errNoBucket
			}
			return nil
		})
	} else {
		err = db.Update(func(tx *bbolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(Bucket); err != nil {
				return fmt.Errorf("could not create root bucket: %w", err)
			}
			return nil
		})
	}
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &BoltDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltDBStore) Get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		// Bolt values are only valid within the transaction.
		val = bytes.Clone(tx.Bucket(Bucket).Get(key))
		return nil
	})
	if err == nil && val == nil {
		err = ErrKeyNotFound
	}
	return val, err
}

// PutChangeSet implements the Store interface.
func (s *BoltDBStore) PutChangeSet(puts map[string][]byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		for k, v := range puts {
			var err error
			if v == nil {
				err = b.Delete([]byte(k))
			} else {
				err = b.Put([]byte(k), v)
			}
			if err != nil {
				return fmt.Errorf("key %x: %w", k, err)
			}
		}
		return nil
	})
}

// Seek implements the Store interface.
func (s *BoltDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	_ = s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		for k, v := c.Seek(rng.start()); k != nil && bytes.HasPrefix(k, rng.Prefix); k, v = c.Next() {
			if !f(k, v) {
				break
			}
		}
		return nil
	})
}

// Close releases all db resources.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
