// Package vault seals and opens the persisted wallet record.  The sealed
// blob is self-describing: it carries the scrypt parameters and salt used to
// derive the sealing key from the passphrase, followed by a nacl secretbox.
package vault

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"runtime/debug"

	"github.com/extwallet/extwallet/internal/zero"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 32
	nonceSize = 24
	keySize   = 32

	// headerSize is salt plus the three serialized scrypt parameters.
	headerSize = saltSize + 3*8
)

// Options holds the scrypt parameters used when sealing.
type Options struct {
	N int
	R int
	P int
}

// DefaultOptions is the scrypt cost used for real wallets.
var DefaultOptions = Options{
	N: 262144, // 2^18
	R: 8,
	P: 1,
}

// FastOptions is a low-cost parameter set for tests only.
var FastOptions = Options{
	N: 16,
	R: 8,
	P: 1,
}

var (
	// ErrBadPassphrase is returned when a blob cannot be opened with the
	// supplied passphrase.  Callers must surface this as a credential
	// problem, never as a crash.
	ErrBadPassphrase = errors.New("wrong passphrase or corrupt blob")

	// ErrMalformedBlob is returned when a blob is too short to carry its
	// own header.
	ErrMalformedBlob = errors.New("sealed blob is malformed")
)

// Seal encrypts plaintext under a key derived from passphrase.  The
// resulting blob is salt || params || nonce || box.
func Seal(passphrase, plaintext []byte, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = &DefaultOptions
	}

	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, salt[:], opts)
	if err != nil {
		return nil, err
	}
	defer zero.Bytea32(key)

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	blob := make([]byte, 0, headerSize+nonceSize+len(plaintext)+secretbox.Overhead)
	blob = append(blob, salt[:]...)
	blob = appendUint64(blob, uint64(opts.N))
	blob = appendUint64(blob, uint64(opts.R))
	blob = appendUint64(blob, uint64(opts.P))
	blob = append(blob, nonce[:]...)
	blob = secretbox.Seal(blob, plaintext, &nonce, key)
	return blob, nil
}

// Open decrypts a blob produced by Seal.  A wrong passphrase yields
// ErrBadPassphrase.
func Open(passphrase, blob []byte) ([]byte, error) {
	if len(blob) < headerSize+nonceSize+secretbox.Overhead {
		return nil, ErrMalformedBlob
	}

	salt := blob[:saltSize]
	opts := Options{
		N: int(binary.BigEndian.Uint64(blob[saltSize:])),
		R: int(binary.BigEndian.Uint64(blob[saltSize+8:])),
		P: int(binary.BigEndian.Uint64(blob[saltSize+16:])),
	}
	key, err := deriveKey(passphrase, salt, &opts)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	defer zero.Bytea32(key)

	var nonce [nonceSize]byte
	copy(nonce[:], blob[headerSize:])

	plaintext, ok := secretbox.Open(nil, blob[headerSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrBadPassphrase
	}
	return plaintext, nil
}

func deriveKey(passphrase, salt []byte, opts *Options) (*[keySize]byte, error) {
	raw, err := scrypt.Key(passphrase, salt, opts.N, opts.R, opts.P, keySize)
	if err != nil {
		return nil, err
	}
	defer zero.Bytes(raw)

	var key [keySize]byte
	copy(key[:], raw)

	// scrypt allocates large intermediate buffers for high cost
	// parameters; return them to the OS promptly.
	if opts.N >= DefaultOptions.N {
		debug.FreeOSMemory()
	}
	return &key, nil
}

func appendUint64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}
