package storage

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/extwallet/extwallet/record"
	"github.com/extwallet/extwallet/vault"
)

// recordsBucket holds one sealed blob per wallet id.
var recordsBucket = []byte("records")

// BoltStore is a Gateway backed by a bbolt database file.
type BoltStore struct {
	db   *bolt.DB
	opts *vault.Options
}

// OpenBoltStore opens (creating if necessary) the database at path.  The
// vault options control the sealing cost; nil means the default cost.
func OpenBoltStore(path string, opts *vault.Options) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, opts: opts}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Ready reports whether the backend is available.  The bolt file is opened
// eagerly, so readiness only checks the context.
func (s *BoltStore) Ready(ctx context.Context) error {
	return ctx.Err()
}

// Read decrypts and materializes the record for id.
func (s *BoltStore) Read(id string, key []byte) (*record.Record, error) {
	blob, err := s.readBlob(id)
	if err != nil {
		return nil, err
	}
	plaintext, err := vault.Open(key, blob)
	if err != nil {
		return nil, err
	}
	return record.Unmarshal(plaintext)
}

// Save seals and writes the record for id.
func (s *BoltStore) Save(id string, key []byte, r *record.Record) error {
	plaintext, err := record.Marshal(r)
	if err != nil {
		return err
	}
	blob, err := vault.Seal(key, plaintext, s.opts)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(id), blob)
	})
}

// Check validates the key against the stored blob without materializing the
// record.
func (s *BoltStore) Check(id string, key []byte) error {
	blob, err := s.readBlob(id)
	if err != nil {
		return err
	}
	_, err = vault.Open(key, blob)
	return err
}

func (s *BoltStore) readBlob(id string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}
