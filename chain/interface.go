// Package chain provides the node-facing collaborators of the transaction
// pipeline: transaction normalization, gas pricing and broadcast.  The
// wallet core never validates chain state through these; it only shapes and
// forwards signed artifacts.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/extwallet/extwallet/chainreg"
)

// TxArgs is the wire shape of an incoming transaction request, mirroring the
// standard provider eth_sendTransaction parameter object.
type TxArgs struct {
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Nonce    *hexutil.Uint64 `json:"nonce"`
	Data     hexutil.Bytes   `json:"data"`
	ChainID  *hexutil.Big    `json:"chainId"`
}

// Backend allows more than one node backing source, as long as a driver is
// written for it.  All methods are scoped to an explicit chain; the backend
// resolves the chain to an endpoint through the network registry.
type Backend interface {
	// PrepareTx normalizes the transaction in place: missing nonce and
	// gas limit are filled from the node's view of the pending state.
	PrepareTx(ctx context.Context, chain chainreg.Chain, args *TxArgs) error

	// SuggestGasPrice fetches a gas price for the chain.
	SuggestGasPrice(ctx context.Context, chain chainreg.Chain) (*big.Int, error)

	// SendTx broadcasts a signed transaction and returns its hash.
	SendTx(ctx context.Context, chain chainreg.Chain, tx *types.Transaction) (common.Hash, error)
}
