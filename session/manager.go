// Package session implements the short-lived reveal credential.  The session
// key is a decryption key separate from the long-lived storage credential;
// while it is active, export of raw secrets (private keys, recovery phrases)
// is permitted.  It expires a fixed interval after it was last established.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/extwallet/extwallet/internal/zero"
	"github.com/lightningnetwork/lnd/clock"
)

// DefaultTimeout is the sliding expiry applied when a session key is
// established.  The timer restarts only when the key is re-established, not
// on each use.
const DefaultTimeout = 120 * time.Second

// ErrSessionExpired is returned when a reveal credential is requested while
// no session key is active.
var ErrSessionExpired = errors.New("session key expired or never established")

// Manager holds the session key and its expiry.  A manager starts with no
// key.  All methods are safe for concurrent use; validity is re-checked
// against the clock on every access, so a caller can never act on a stale
// "was active" observation.
type Manager struct {
	mtx     sync.Mutex
	clock   clock.Clock
	timeout time.Duration

	key    []byte
	expiry time.Time
}

// NewManager returns a manager with the default timeout.
func NewManager(c clock.Clock) *Manager {
	return NewManagerTimeout(c, DefaultTimeout)
}

// NewManagerTimeout returns a manager with a caller-chosen timeout.
func NewManagerTimeout(c clock.Clock, timeout time.Duration) *Manager {
	return &Manager{clock: c, timeout: timeout}
}

// Set establishes the session key and arms the expiry timer.  The key bytes
// are copied; the caller keeps ownership of its slice.
func (m *Manager) Set(key []byte) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.clearLocked()
	m.key = make([]byte, len(key))
	copy(m.key, key)
	m.expiry = m.clock.Now().Add(m.timeout)
}

// Clear zeroes and drops the session key.
func (m *Manager) Clear() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.clearLocked()
}

// Key returns a copy of the session key if one is currently active.  The
// check happens at call time against the clock, so a key that expired while
// another operation was suspended is reported as absent here.
func (m *Manager) Key() ([]byte, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.key == nil {
		return nil, ErrSessionExpired
	}
	if !m.clock.Now().Before(m.expiry) {
		m.clearLocked()
		return nil, ErrSessionExpired
	}
	key := make([]byte, len(m.key))
	copy(key, m.key)
	return key, nil
}

// Active reports whether a session key is currently valid.  Reveal paths
// must not cache this result across a suspension point; they call Key at the
// moment of use instead.
func (m *Manager) Active() bool {
	_, err := m.Key()
	return err == nil
}

func (m *Manager) clearLocked() {
	if m.key != nil {
		zero.Bytes(m.key)
		m.key = nil
	}
	m.expiry = time.Time{}
}
