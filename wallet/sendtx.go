package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/extwallet/extwallet/chain"
	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/record"
)

// SendTransaction validates, normalizes, prices, signs and dispatches an
// outgoing transaction:
//
//  1. Only the trusted dispatch path may invoke this low-level sender; the
//     web-facing method wraps it with its own authorization.
//  2. The from field must be present and equal to the current address.
//  3. The origin's chain is resolved; a present chainId that differs fails
//     before any network call, an absent one is filled in with a warning.
//  4. The transaction is normalized by the chain backend.
//  5. A missing gas price is fetched from the backend.
//  6. A chain-scoped signer is built over the current wallet's key.
//  7. The signed transaction is submitted; the result echoed to listeners
//     is sanitized, so signed bytes never flow through the notification bus.
func (c *Controller) SendTransaction(ctx context.Context, call Context, origin string, args *chain.TxArgs) (*record.TxEntry, error) {
	if !call.Internal {
		return nil, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	if rec.CurrentAddress == nil {
		return nil, ErrNoCurrentAddress
	}
	if args.From == nil || *args.From != *rec.CurrentAddress {
		return nil, ErrFromMismatch
	}

	resolved := record.ChainForOrigin(rec, origin)
	if args.ChainID != nil {
		// hexutil.Big admits 256-bit values; anything past uint64
		// cannot name a known chain, so it is a mismatch outright
		// rather than a silent truncation.
		requested := args.ChainID.ToInt()
		if !requested.IsUint64() || chainreg.Chain(requested.Uint64()) != resolved {
			return nil, ErrChainMismatch
		}
	} else {
		id := hexutil.Big(*new(big.Int).SetUint64(uint64(resolved)))
		args.ChainID = &id
		log.Warnf("transaction from %s missing chainId; using chain %s "+
			"selected by origin %q", args.From.Hex(), resolved, origin)
	}

	if err := c.backend.PrepareTx(ctx, resolved, args); err != nil {
		return nil, err
	}
	if args.GasPrice == nil {
		price, err := c.backend.SuggestGasPrice(ctx, resolved)
		if err != nil {
			return nil, err
		}
		p := hexutil.Big(*price)
		args.GasPrice = &p
	}

	w := rec.WalletByAddress(args.From.Hex())
	if w == nil {
		return nil, ErrFromMismatch
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(uint64(resolved)))
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(*args.Nonce),
		GasPrice: args.GasPrice.ToInt(),
		Gas:      uint64(*args.Gas),
		To:       args.To,
		Value:    value,
		Data:     args.Data,
	})
	signed, err := types.SignTx(tx, signer, w.PrivateKey)
	if err != nil {
		return nil, err
	}

	hash, err := c.backend.SendTx(ctx, resolved, signed)
	if err != nil {
		return nil, err
	}

	// The log entry keeps only the sanitized shape of the transaction.
	entry := record.TxEntry{
		Hash:   hash,
		From:   *args.From,
		To:     args.To,
		Value:  value.String(),
		Chain:  resolved,
		Time:   c.clk.Now(),
		Status: "pending",
	}
	if _, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.AppendTransaction(r, entry), nil
	}); err != nil {
		return nil, err
	}

	c.publish(Event{Kind: TransactionPending, Address: entry.From, Chain: resolved, Tx: &entry})
	log.Infof("submitted transaction %s on chain %s", hash.Hex(), resolved)
	return &entry, nil
}

// Transactions returns the sanitized transaction log.  Internal-only.
func (c *Controller) Transactions(ctx Context) ([]record.TxEntry, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return append([]record.TxEntry(nil), rec.Transactions...), nil
}
