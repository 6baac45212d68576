package record

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/extwallet/extwallet/container"
	"github.com/extwallet/extwallet/internal/zero"
	"github.com/extwallet/extwallet/session"
)

// RecoveryPhrase reveals the recovery phrase of a mnemonic group.  A
// currently valid session key is required; validity is checked here, at the
// moment of use, never from a cached observation.  Reveal is scoped per
// group: one phrase covers every address derived from it.
func RecoveryPhrase(r *Record, groupID string, sess *session.Manager) (string, error) {
	key, err := sess.Key()
	if err != nil {
		return "", err
	}
	zero.Bytes(key)

	g := r.GroupByID(groupID)
	if g == nil {
		return "", ErrUnknownGroup
	}
	if g.Container.SeedType() != container.SeedMnemonic {
		return "", ErrNotMnemonicGroup
	}
	return g.Container.Mnemonic(), nil
}

// PrivateKey reveals the hex private key of a single wallet.  A currently
// valid session key is required, checked at call time.
func PrivateKey(r *Record, addr common.Address, sess *session.Manager) (string, error) {
	key, err := sess.Key()
	if err != nil {
		return "", err
	}
	zero.Bytes(key)

	w := r.WalletByAddress(addr.Hex())
	if w == nil {
		return "", ErrUnknownAddress
	}
	return hex.EncodeToString(crypto.FromECDSA(w.PrivateKey)), nil
}
