package provider

// Handlers for the trusted UI-only tier.  The dispatcher has already
// verified the internal sentinel before any of these run; they still pass
// the call context down so the controller can fail closed on its own.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/extwallet/extwallet/chain"
	"github.com/extwallet/extwallet/wallet"
)

func stagePendingWallet(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Kind   string `json:"kind"`
		Secret string `json:"secret"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	var kind wallet.PendingKind
	switch p.Kind {
	case "generate":
		kind = wallet.PendingGenerate
	case "importMnemonic":
		kind = wallet.PendingImportMnemonic
	case "importPrivateKey":
		kind = wallet.PendingImportPrivateKey
	default:
		return nil, InvalidParamsError{fmt.Errorf("unknown pending kind %q", p.Kind)}
	}

	addrs, err := d.wallet.StagePendingWallet(call, kind, p.Secret)
	if err != nil {
		return nil, err
	}
	return hexAddresses(addrs), nil
}

func savePendingWallet(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return d.wallet.SavePendingWallet(call)
}

func discardPendingWallet(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return nil, d.wallet.DiscardPendingWallet(call)
}

func getGroups(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return d.wallet.Groups(call)
}

func getTransactions(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return d.wallet.Transactions(call)
}

func setCurrentAddress(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var rawAddr string
	if err := decodeParams(params, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return nil, d.wallet.SetCurrentAddress(call, addr)
}

func addPermission(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var origin, rawAddr string
	if err := decodeParams(params, &origin, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return nil, d.wallet.AddPermission(call, origin, addr)
}

func removePermission(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var origin, rawAddr string
	if err := decodeParams(params, &origin, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return nil, d.wallet.RemovePermission(call, origin, addr)
}

func removeAllOriginPermissions(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var origin string
	if err := decodeParams(params, &origin); err != nil {
		return nil, err
	}
	return nil, d.wallet.RemoveAllOriginPermissions(call, origin)
}

func setChainForOrigin(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var chainID, origin string
	if err := decodeParams(params, &chainID, &origin); err != nil {
		return nil, err
	}
	ch, err := d.wallet.ResolveChain(chainID)
	if err != nil {
		return nil, err
	}
	return nil, d.wallet.SetChainForOrigin(call, ch, origin)
}

func getChainForOrigin(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var origin string
	if err := decodeParams(params, &origin); err != nil {
		return nil, err
	}
	ch, err := d.wallet.ChainForOrigin(call, origin)
	if err != nil {
		return nil, err
	}
	return ch.HexID(), nil
}

func renameGroup(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var groupID, name string
	if err := decodeParams(params, &groupID, &name); err != nil {
		return nil, err
	}
	return nil, d.wallet.RenameGroup(call, groupID, name)
}

func renameAddress(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var rawAddr, name string
	if err := decodeParams(params, &rawAddr, &name); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return nil, d.wallet.RenameAddress(call, addr, name)
}

func removeAddress(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var rawAddr string
	if err := decodeParams(params, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return nil, d.wallet.RemoveAddress(call, addr)
}

func removeGroup(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var groupID string
	if err := decodeParams(params, &groupID); err != nil {
		return nil, err
	}
	return nil, d.wallet.RemoveGroup(call, groupID)
}

func setPreferences(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var patch map[string]interface{}
	if err := decodeParams(params, &patch); err != nil {
		return nil, err
	}
	return nil, d.wallet.SetPreferences(call, patch)
}

func getPreferences(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return d.wallet.Preferences(call)
}

func setWalletNameFlag(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var flag string
	if err := decodeParams(params, &flag); err != nil {
		return nil, err
	}
	return nil, d.wallet.SetWalletNameFlag(call, flag)
}

func removeWalletNameFlag(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var flag string
	if err := decodeParams(params, &flag); err != nil {
		return nil, err
	}
	return nil, d.wallet.RemoveWalletNameFlag(call, flag)
}

func confirmBackup(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var groupID string
	if err := decodeParams(params, &groupID); err != nil {
		return nil, err
	}
	return nil, d.wallet.ConfirmBackup(call, groupID)
}

func getNoBackupCount(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return d.wallet.NoBackupCount(call)
}

func establishSession(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var passphrase string
	if err := decodeParams(params, &passphrase); err != nil {
		return nil, err
	}
	return nil, d.wallet.EstablishSession(call, []byte(passphrase))
}

func clearSession(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return nil, d.wallet.ClearSession(call)
}

func getRecoveryPhrase(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var groupID string
	if err := decodeParams(params, &groupID); err != nil {
		return nil, err
	}
	return d.wallet.RevealRecoveryPhrase(call, groupID)
}

func getPrivateKey(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var rawAddr string
	if err := decodeParams(params, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return d.wallet.RevealPrivateKey(call, addr)
}

// internalSendTransaction is the trusted signing entry point: the UI has
// already run its own confirmation flow, so the pipeline runs directly.
func internalSendTransaction(ctx context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var (
		origin string
		args   chain.TxArgs
	)
	if err := decodeParams(params, &origin, &args); err != nil {
		return nil, err
	}
	entry, err := d.wallet.SendTransaction(ctx, call, origin, &args)
	if err != nil {
		return nil, err
	}
	return entry.Hash.Hex(), nil
}

func internalSignPersonal(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var (
		data    []byte
		rawAddr string
	)
	if err := decodeParams(params, &data, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	sig, err := d.wallet.SignPersonal(call, addr, data)
	if err != nil {
		return nil, err
	}
	return sig.String(), nil
}
