package wallet

import "errors"

// Errors variables that are defined once here to avoid duplication below.
// All of them are terminal for the triggering call; nothing is retried
// automatically.
var (
	// ErrOriginNotAllowed is the fail-closed authorization failure: the
	// calling origin has not been granted the address (or the method is
	// internal-only and the caller is a web origin).
	ErrOriginNotAllowed = errors.New("origin not allowed")

	// ErrRecordNotFound is returned when an operation requires an
	// initialized record that is absent.
	ErrRecordNotFound = errors.New("wallet record not loaded")

	// ErrBadCredentials is returned when the record blob cannot be
	// decrypted.  It is a credential problem, never a crash.
	ErrBadCredentials = errors.New("encryption key not found or invalid")

	// ErrNoCurrentAddress is returned when an operation needs a current
	// address and none is set.
	ErrNoCurrentAddress = errors.New("no current address")

	// ErrNoPendingWallet is returned when a commit is requested with
	// nothing staged.
	ErrNoPendingWallet = errors.New("no pending wallet staged")

	// ErrFromMismatch is returned when a transaction's from field is
	// absent or differs from the current address.
	ErrFromMismatch = errors.New("transaction from does not match current address")

	// ErrChainMismatch is returned when a transaction carries a chain id
	// different from the chain the origin has selected.  There is no
	// implicit chain switching during send.
	ErrChainMismatch = errors.New("transaction chainId does not match origin chain")
)
