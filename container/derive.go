package container

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DefaultDerivationBase is the BIP-44 base path from which wallets are
// derived; the account index is appended to it.
const DefaultDerivationBase = "m/44'/60'/0'/0"

// DefaultDerivationPath is the path of the first derived wallet.
const DefaultDerivationPath = DefaultDerivationBase + "/0"

// entropyBits is the entropy used for generated recovery phrases
// (128 bits, a 12-word phrase).
const entropyBits = 128

// ErrBadMnemonic is returned when a recovery phrase fails BIP-39 checksum
// validation.
var ErrBadMnemonic = errors.New("invalid recovery phrase")

// Partial describes the known fields of a wallet being restored.  Restore
// fills in whatever is missing.
type Partial struct {
	// Address is the hex address, when already known.
	Address string

	// PrivateKeyHex is the raw private key in hex, when already known.
	PrivateKeyHex string

	// Mnemonic is the recovery phrase plus derivation path, when the
	// wallet is seed-derived.
	Mnemonic *Mnemonic

	// Name is an optional user-visible label.
	Name string
}

// Restore builds a wallet from partial information:
//
//  1. If both address and private key are given they are trusted as-is;
//     this is the fast path for already-derived data.
//  2. If only the private key is given, the address is derived from it.
//  3. If a mnemonic is given, the wallet is derived deterministically from
//     (phrase, path).
//  4. Otherwise a fresh random mnemonic-backed wallet is generated.
func Restore(p Partial) (*BareWallet, error) {
	switch {
	case p.Address != "" && p.PrivateKeyHex != "":
		addr, ok := parseAddress(p.Address)
		if !ok {
			return nil, fmt.Errorf("invalid address %q", p.Address)
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(p.PrivateKeyHex, "0x"))
		if err != nil {
			return nil, err
		}
		return &BareWallet{
			Address:    addr,
			PrivateKey: key,
			Mnemonic:   p.Mnemonic,
			Name:       p.Name,
		}, nil

	case p.PrivateKeyHex != "":
		key, err := crypto.HexToECDSA(strings.TrimPrefix(p.PrivateKeyHex, "0x"))
		if err != nil {
			return nil, err
		}
		return &BareWallet{
			Address:    AddressFromKey(key),
			PrivateKey: key,
			Mnemonic:   p.Mnemonic,
			Name:       p.Name,
		}, nil

	case p.Mnemonic != nil && p.Mnemonic.Phrase != "":
		path := p.Mnemonic.Path
		if path == "" {
			path = DefaultDerivationPath
		}
		w, err := DeriveWallet(p.Mnemonic.Phrase, path)
		if err != nil {
			return nil, err
		}
		w.Name = p.Name
		return w, nil

	default:
		return Generate(p.Name)
	}
}

// Generate creates a new random mnemonic-backed wallet at the default
// derivation path.
func Generate(name string) (*BareWallet, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, err
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	w, err := DeriveWallet(phrase, DefaultDerivationPath)
	if err != nil {
		return nil, err
	}
	w.Name = name
	return w, nil
}

// DeriveWallet deterministically derives the wallet at path from the given
// recovery phrase.
func DeriveWallet(phrase, path string) (*BareWallet, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrBadMnemonic
	}
	parsed, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(phrase, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	ext := master
	for _, n := range parsed {
		ext, err = ext.Derive(n)
		if err != nil {
			return nil, err
		}
	}
	ecPriv, err := ext.ECPrivKey()
	if err != nil {
		return nil, err
	}
	key, err := crypto.ToECDSA(ecPriv.Serialize())
	if err != nil {
		return nil, err
	}

	return &BareWallet{
		Address:    AddressFromKey(key),
		PrivateKey: key,
		Mnemonic:   &Mnemonic{Phrase: phrase, Path: path},
	}, nil
}

// DeriveNext derives the wallet at the next unused index of the default
// derivation base and adds it to a mnemonic container.
func (c *Container) DeriveNext() (*BareWallet, error) {
	if c.seedType != SeedMnemonic {
		return nil, ErrSingleKeyContainer
	}
	phrase := c.Mnemonic()

	// Walk indexes until one derives an address not yet present.  Paths
	// of existing wallets may be sparse, so probing beats counting.
	for index := 0; ; index++ {
		path := fmt.Sprintf("%s/%d", DefaultDerivationBase, index)
		w, err := DeriveWallet(phrase, path)
		if err != nil {
			return nil, err
		}
		if c.WalletByAddress(w.Address.Hex()) != nil {
			continue
		}
		if err := c.AddWallet(w); err != nil {
			return nil, err
		}
		return w, nil
	}
}
