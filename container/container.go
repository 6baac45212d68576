// Package container implements the wallet container, the unit that owns an
// ordered set of key-bearing wallets of a single seed type.  Containers are
// pure data plus derivation logic; persistence and policy live above them.
package container

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SeedType tags the two container variants.
type SeedType uint8

const (
	// SeedMnemonic marks a container whose wallets are all derived from a
	// BIP-39 recovery phrase.
	SeedMnemonic SeedType = iota

	// SeedPrivateKey marks a container holding exactly one imported key.
	SeedPrivateKey
)

// String returns the serialization tag of the seed type.
func (t SeedType) String() string {
	switch t {
	case SeedMnemonic:
		return "mnemonic"
	case SeedPrivateKey:
		return "privateKey"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseSeedType parses the serialization tag of a seed type.
func ParseSeedType(s string) (SeedType, error) {
	switch s {
	case "mnemonic":
		return SeedMnemonic, nil
	case "privateKey":
		return SeedPrivateKey, nil
	default:
		return 0, fmt.Errorf("unknown seed type %q", s)
	}
}

var (
	// ErrSingleKeyContainer is returned on any attempt to add a wallet to
	// a private-key container, which holds exactly one imported key.
	ErrSingleKeyContainer = errors.New("private key container holds exactly one wallet")

	// ErrMissingMnemonic is returned when a wallet without a recovery
	// phrase is placed into a mnemonic container.
	ErrMissingMnemonic = errors.New("wallet in mnemonic container must carry a mnemonic")

	// ErrDuplicateAddress is returned when a wallet with an address
	// already present in the container is added.
	ErrDuplicateAddress = errors.New("address already present in container")

	// ErrEmptyContainer is returned when a container is constructed with
	// no wallets.
	ErrEmptyContainer = errors.New("container requires at least one wallet")
)

// Mnemonic holds the recovery phrase and derivation path of a seed-derived
// wallet.
type Mnemonic struct {
	Phrase string
	Path   string
}

// BareWallet is a single key pair plus its optional provenance data.  It is
// uniquely identified by its address; address comparison is case-insensitive
// because common.Address is canonical bytes.
type BareWallet struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
	Mnemonic   *Mnemonic
	Name       string
}

// String implements fmt.Stringer without exposing key material.  BareWallet
// values must never reach a log or the notification channel in any other
// form.
func (w *BareWallet) String() string {
	return fmt.Sprintf("wallet(%s)", w.Address.Hex())
}

// Container owns an ordered, non-empty sequence of wallets of one seed type.
type Container struct {
	seedType SeedType
	wallets  []*BareWallet
}

// NewMnemonicContainer builds a mnemonic-seeded container.  Every wallet
// must carry a mnemonic and addresses must be unique.
func NewMnemonicContainer(wallets ...*BareWallet) (*Container, error) {
	if len(wallets) == 0 {
		return nil, ErrEmptyContainer
	}
	c := &Container{seedType: SeedMnemonic}
	for _, w := range wallets {
		if err := c.AddWallet(w); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewPrivateKeyContainer builds a container around exactly one imported key.
// Zero or more than one wallet is an error.
func NewPrivateKeyContainer(wallets ...*BareWallet) (*Container, error) {
	if len(wallets) != 1 {
		return nil, ErrSingleKeyContainer
	}
	return &Container{
		seedType: SeedPrivateKey,
		wallets:  []*BareWallet{wallets[0]},
	}, nil
}

// SeedType returns the variant tag of the container.
func (c *Container) SeedType() SeedType {
	return c.seedType
}

// FirstWallet returns the first wallet of the container.  Containers are
// never empty, so the result is always non-nil.
func (c *Container) FirstWallet() *BareWallet {
	return c.wallets[0]
}

// Wallets returns the ordered wallet sequence.  The slice is shared; callers
// must not modify it.
func (c *Container) Wallets() []*BareWallet {
	return c.wallets
}

// Mnemonic returns the container's recovery phrase, or the empty string for
// a private-key container.
func (c *Container) Mnemonic() string {
	switch c.seedType {
	case SeedMnemonic:
		return c.wallets[0].Mnemonic.Phrase
	case SeedPrivateKey:
		return ""
	default:
		return ""
	}
}

// AddWallet appends a wallet to the container.  Private-key containers
// reject every add.  Mnemonic containers reject wallets without a mnemonic
// and duplicate addresses.
func (c *Container) AddWallet(w *BareWallet) error {
	switch c.seedType {
	case SeedPrivateKey:
		return ErrSingleKeyContainer
	case SeedMnemonic:
		if w.Mnemonic == nil || w.Mnemonic.Phrase == "" {
			return ErrMissingMnemonic
		}
		if c.WalletByAddress(w.Address.Hex()) != nil {
			return ErrDuplicateAddress
		}
		c.wallets = append(c.wallets, w)
		return nil
	default:
		return fmt.Errorf("unknown seed type %d", c.seedType)
	}
}

// RemoveWallet removes the wallet with the given address from the container.
// The comparison is case-insensitive.  Removing an absent address is a
// no-op, not an error.
func (c *Container) RemoveWallet(address string) {
	addr, ok := parseAddress(address)
	if !ok {
		return
	}
	for i, w := range c.wallets {
		if w.Address == addr {
			c.wallets = append(c.wallets[:i], c.wallets[i+1:]...)
			return
		}
	}
}

// WalletByAddress returns the wallet with the given address, or nil.  The
// comparison is case-insensitive.
func (c *Container) WalletByAddress(address string) *BareWallet {
	addr, ok := parseAddress(address)
	if !ok {
		return nil
	}
	for _, w := range c.wallets {
		if w.Address == addr {
			return w
		}
	}
	return nil
}

// Len returns the number of wallets held by the container.
func (c *Container) Len() int {
	return len(c.wallets)
}

// Clone returns a deep copy of the container.  Wallet key pointers are
// shared; the wallet structs and the sequence are copied, which is what the
// record model needs for immutable updates.
func (c *Container) Clone() *Container {
	nc := &Container{
		seedType: c.seedType,
		wallets:  make([]*BareWallet, len(c.wallets)),
	}
	for i, w := range c.wallets {
		cw := *w
		if w.Mnemonic != nil {
			m := *w.Mnemonic
			cw.Mnemonic = &m
		}
		nc.wallets[i] = &cw
	}
	return nc
}

// parseAddress parses a possibly mixed-case hex address.
func parseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// AddressFromKey computes the address belonging to a private key.
func AddressFromKey(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
