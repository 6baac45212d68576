package container

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Snapshot is the plain serialization view of a container.  It carries raw
// key material: the only legal sink for a Snapshot is the encrypted
// persistence boundary.  Its String method redacts, so a Snapshot that
// accidentally reaches a format verb never prints secrets.
type Snapshot struct {
	SeedType string           `json:"seedType"`
	Wallets  []WalletSnapshot `json:"wallets"`
}

// WalletSnapshot is the plain serialization view of a single wallet.
type WalletSnapshot struct {
	Address    string            `json:"address"`
	PrivateKey string            `json:"privateKey"`
	Mnemonic   *MnemonicSnapshot `json:"mnemonic,omitempty"`
	Name       string            `json:"name,omitempty"`
}

// MnemonicSnapshot is the plain serialization view of a mnemonic.
type MnemonicSnapshot struct {
	Phrase string `json:"phrase"`
	Path   string `json:"path"`
}

// String implements fmt.Stringer, redacting all content.
func (s Snapshot) String() string {
	return fmt.Sprintf("containerSnapshot(%s, %d wallets, secrets redacted)",
		s.SeedType, len(s.Wallets))
}

// String implements fmt.Stringer, redacting all content.
func (s WalletSnapshot) String() string {
	return fmt.Sprintf("walletSnapshot(%s, secrets redacted)", s.Address)
}

// String implements fmt.Stringer, redacting the phrase.
func (s MnemonicSnapshot) String() string {
	return fmt.Sprintf("mnemonicSnapshot(path=%s, phrase redacted)", s.Path)
}

// Snapshot returns the plain-object view of the container, stripping any
// runtime-only state while retaining secret material.
func (c *Container) Snapshot() Snapshot {
	s := Snapshot{
		SeedType: c.seedType.String(),
		Wallets:  make([]WalletSnapshot, 0, len(c.wallets)),
	}
	for _, w := range c.wallets {
		ws := WalletSnapshot{
			Address:    w.Address.Hex(),
			PrivateKey: hex.EncodeToString(crypto.FromECDSA(w.PrivateKey)),
			Name:       w.Name,
		}
		if w.Mnemonic != nil {
			ws.Mnemonic = &MnemonicSnapshot{
				Phrase: w.Mnemonic.Phrase,
				Path:   w.Mnemonic.Path,
			}
		}
		s.Wallets = append(s.Wallets, ws)
	}
	return s
}

// FromSnapshot rebuilds a container from its plain-object view.
func FromSnapshot(s Snapshot) (*Container, error) {
	seedType, err := ParseSeedType(s.SeedType)
	if err != nil {
		return nil, err
	}

	wallets := make([]*BareWallet, 0, len(s.Wallets))
	for _, ws := range s.Wallets {
		p := Partial{
			Address:       ws.Address,
			PrivateKeyHex: ws.PrivateKey,
			Name:          ws.Name,
		}
		if ws.Mnemonic != nil {
			p.Mnemonic = &Mnemonic{Phrase: ws.Mnemonic.Phrase, Path: ws.Mnemonic.Path}
		}
		w, err := Restore(p)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	switch seedType {
	case SeedMnemonic:
		return NewMnemonicContainer(wallets...)
	case SeedPrivateKey:
		return NewPrivateKeyContainer(wallets...)
	default:
		return nil, fmt.Errorf("unknown seed type %q", s.SeedType)
	}
}
