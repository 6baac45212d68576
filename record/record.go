// Package record implements the wallet record: groups of wallet containers,
// per-origin permissions and chain selection, preferences and the
// transaction log.  Every update is a pure function that takes the current
// record and returns a new one, so the controller can persist the new value
// and swap it in atomically without ever exposing a half-updated record.
package record

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/container"
)

var (
	// ErrUnknownAddress is returned when an operation references an
	// address not owned by any group of the record.
	ErrUnknownAddress = errors.New("address not found in record")

	// ErrUnknownGroup is returned when an operation references a group id
	// that does not exist.
	ErrUnknownGroup = errors.New("wallet group not found in record")

	// ErrNotMnemonicGroup is returned when a recovery phrase is requested
	// for a group seeded by an imported private key.
	ErrNotMnemonicGroup = errors.New("group has no recovery phrase")
)

// Provenance records how a wallet group came to exist.
type Provenance string

// Provenance values.
const (
	OriginGenerated Provenance = "generated"
	OriginImported  Provenance = "imported"
)

// Group is a named, backup-tracked wrapper around one wallet container.
type Group struct {
	ID           string
	Container    *container.Container
	Origin       Provenance
	LastBackedUp *time.Time
	Name         string
}

// Permission is the set of addresses an origin may see plus the chain that
// origin has selected.
type Permission struct {
	Addresses []common.Address
	Chain     chainreg.Chain
}

// TxEntry is one sanitized entry of the transaction log.  Raw signature
// payloads are stripped before an entry is built, so nothing here can leak
// signed bytes through the notification bus.
type TxEntry struct {
	Hash   common.Hash     `json:"hash"`
	From   common.Address  `json:"from"`
	To     *common.Address `json:"to,omitempty"`
	Value  string          `json:"value,omitempty"`
	Chain  chainreg.Chain  `json:"chain"`
	Time   time.Time       `json:"time"`
	Status string          `json:"status"`
}

// PendingWallet is a staged container awaiting explicit commit.  It is held
// only in memory; a pending wallet that is never committed is never
// persisted.
type PendingWallet struct {
	Container *container.Container
	Origin    Provenance
}

// Record is the complete persisted state of one wallet id.
type Record struct {
	Groups          []*Group
	Permissions     map[string]*Permission
	CurrentAddress  *common.Address
	Preferences     map[string]interface{}
	WalletNameFlags map[string]struct{}
	Transactions    []TxEntry
}

// New returns an empty record.
func New() *Record {
	return &Record{
		Permissions:     make(map[string]*Permission),
		Preferences:     make(map[string]interface{}),
		WalletNameFlags: make(map[string]struct{}),
	}
}

// Clone returns a deep copy of the record.  Update functions operate on a
// clone and return it, leaving their argument untouched.
func (r *Record) Clone() *Record {
	nr := &Record{
		Groups:          make([]*Group, len(r.Groups)),
		Permissions:     make(map[string]*Permission, len(r.Permissions)),
		Preferences:     make(map[string]interface{}, len(r.Preferences)),
		WalletNameFlags: make(map[string]struct{}, len(r.WalletNameFlags)),
		Transactions:    append([]TxEntry(nil), r.Transactions...),
	}
	for i, g := range r.Groups {
		ng := *g
		ng.Container = g.Container.Clone()
		if g.LastBackedUp != nil {
			t := *g.LastBackedUp
			ng.LastBackedUp = &t
		}
		nr.Groups[i] = &ng
	}
	for origin, p := range r.Permissions {
		nr.Permissions[origin] = &Permission{
			Addresses: append([]common.Address(nil), p.Addresses...),
			Chain:     p.Chain,
		}
	}
	for k, v := range r.Preferences {
		nr.Preferences[k] = v
	}
	for k := range r.WalletNameFlags {
		nr.WalletNameFlags[k] = struct{}{}
	}
	if r.CurrentAddress != nil {
		a := *r.CurrentAddress
		nr.CurrentAddress = &a
	}
	return nr
}

// GroupByID returns the group with the given id, or nil.
func (r *Record) GroupByID(id string) *Group {
	for _, g := range r.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// WalletByAddress returns the wallet with the given address from whichever
// group owns it, or nil.
func (r *Record) WalletByAddress(address string) *container.BareWallet {
	for _, g := range r.Groups {
		if w := g.Container.WalletByAddress(address); w != nil {
			return w
		}
	}
	return nil
}

// OwnsAddress reports whether any group of the record owns the address.
func (r *Record) OwnsAddress(addr common.Address) bool {
	return r.WalletByAddress(addr.Hex()) != nil
}

// HasPermission reports whether the origin has been granted the address.
func (r *Record) HasPermission(origin string, addr common.Address) bool {
	p, ok := r.Permissions[origin]
	if !ok {
		return false
	}
	for _, a := range p.Addresses {
		if a == addr {
			return true
		}
	}
	return false
}

// PermittedAddresses returns the addresses granted to the origin, in grant
// order.
func (r *Record) PermittedAddresses(origin string) []common.Address {
	p, ok := r.Permissions[origin]
	if !ok {
		return nil
	}
	return append([]common.Address(nil), p.Addresses...)
}

// ChainForOrigin resolves the chain the origin has selected, or the
// default chain when the origin never selected one.
func ChainForOrigin(r *Record, origin string) chainreg.Chain {
	if p, ok := r.Permissions[origin]; ok && p.Chain != 0 {
		return p.Chain
	}
	return chainreg.DefaultChain
}

// NoBackupCount returns the number of mnemonic-seeded groups that were never
// marked backed up.
func NoBackupCount(r *Record) int {
	n := 0
	for _, g := range r.Groups {
		if g.Container.SeedType() == container.SeedMnemonic && g.LastBackedUp == nil {
			n++
		}
	}
	return n
}
