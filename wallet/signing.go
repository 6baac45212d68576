package wallet

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// SignPersonal signs data with the EIP-191 personal-message prefix using the
// key behind addr.  Only the trusted dispatch path may call it; the
// web-facing personal_sign method wraps it behind permission and
// confirmation.
func (c *Controller) SignPersonal(ctx Context, addr common.Address, data hexutil.Bytes) (hexutil.Bytes, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}
	key, err := c.keyFor(addr)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(accounts.TextHash(data), key)
	if err != nil {
		return nil, err
	}
	// Transform V from 0/1 to the 27/28 form expected by provider
	// consumers.
	sig[64] += 27
	return sig, nil
}

// SignTypedData signs EIP-712 typed data using the key behind addr.  Only
// the trusted dispatch path may call it.
func (c *Controller) SignTypedData(ctx Context, addr common.Address, td apitypes.TypedData) (hexutil.Bytes, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}
	key, err := c.keyFor(addr)
	if err != nil {
		return nil, err
	}

	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func (c *Controller) keyFor(addr common.Address) (*ecdsa.PrivateKey, error) {
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	w := rec.WalletByAddress(addr.Hex())
	if w == nil {
		return nil, ErrFromMismatch
	}
	return w.PrivateKey, nil
}
