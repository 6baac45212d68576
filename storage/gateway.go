// Package storage defines the persistence gateway the wallet controller
// writes through, plus a bbolt-backed implementation.  Records are sealed
// with the vault before they touch the database, so the storage medium only
// ever sees opaque encrypted blobs keyed by wallet id.
package storage

import (
	"context"
	"errors"

	"github.com/extwallet/extwallet/record"
)

// ErrRecordNotFound is returned when no record exists for a wallet id.
var ErrRecordNotFound = errors.New("no record for wallet id")

// Gateway is the encrypted read/save/check contract the controller depends
// on.  Implementations must be safe for concurrent use across wallet ids;
// per-id write serialization is the controller's job.
type Gateway interface {
	// Ready resolves once the storage backend is available.
	Ready(ctx context.Context) error

	// Read decrypts and materializes the record for id.  A wrong key
	// yields vault.ErrBadPassphrase; a missing record ErrRecordNotFound.
	Read(id string, key []byte) (*record.Record, error)

	// Save seals and writes the record for id.
	Save(id string, key []byte, r *record.Record) error

	// Check validates that key opens the record for id without
	// materializing it.
	Check(id string, key []byte) error
}
