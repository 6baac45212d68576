// Package provider implements the provider-method dispatcher: the public
// surface of the wallet core.  Methods come in two trust tiers.  Internal
// methods serve only the trusted UI; the dApp-facing methods mirror the
// standard chain-provider API and are gated behind per-origin permissions
// and user confirmation.
package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/extwallet/extwallet/chain"
	"github.com/extwallet/extwallet/confirm"
	"github.com/extwallet/extwallet/wallet"
)

// requestHandler is a handler function to handle a parsed request into a
// marshalable response.  If the returned error is an *RPCError or one of
// the taxonomy sentinels, the server responds with the matching provider
// error code; anything else maps to the internal-error code.
type requestHandler func(ctx context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error)

var rpcHandlers = map[string]struct {
	handler requestHandler

	// internalOnly marks UI-only methods: any call whose context lacks
	// the internal sentinel fails closed before the handler runs.
	internalOnly bool
}{
	// Standard provider surface available to dApp origins.
	"eth_accounts":             {handler: ethAccounts},
	"eth_requestAccounts":      {handler: ethRequestAccounts},
	"eth_chainId":              {handler: ethChainID},
	"net_version":              {handler: netVersion},
	"eth_sendTransaction":      {handler: ethSendTransaction},
	"personal_sign":            {handler: personalSign},
	"eth_signTypedData_v4":     {handler: ethSignTypedDataV4},
	"wallet_switchEthereumChain": {handler: walletSwitchEthereumChain},
	"wallet_requestPermissions":  {handler: walletRequestPermissions},
	"wallet_getPermissions":      {handler: walletGetPermissions},

	// Methods of the reference provider API that are intentionally
	// unsupported.
	"eth_sign":          {handler: unimplemented},
	"eth_signTypedData": {handler: unimplemented},

	// Trusted UI-only methods.
	"extwallet_stagePendingWallet":          {handler: stagePendingWallet, internalOnly: true},
	"extwallet_savePendingWallet":           {handler: savePendingWallet, internalOnly: true},
	"extwallet_discardPendingWallet":        {handler: discardPendingWallet, internalOnly: true},
	"extwallet_getGroups":                   {handler: getGroups, internalOnly: true},
	"extwallet_getTransactions":             {handler: getTransactions, internalOnly: true},
	"extwallet_setCurrentAddress":           {handler: setCurrentAddress, internalOnly: true},
	"extwallet_addPermission":               {handler: addPermission, internalOnly: true},
	"extwallet_removePermission":            {handler: removePermission, internalOnly: true},
	"extwallet_removeAllOriginPermissions":  {handler: removeAllOriginPermissions, internalOnly: true},
	"extwallet_setChainForOrigin":           {handler: setChainForOrigin, internalOnly: true},
	"extwallet_getChainForOrigin":           {handler: getChainForOrigin, internalOnly: true},
	"extwallet_renameGroup":                 {handler: renameGroup, internalOnly: true},
	"extwallet_renameAddress":               {handler: renameAddress, internalOnly: true},
	"extwallet_removeAddress":               {handler: removeAddress, internalOnly: true},
	"extwallet_removeGroup":                 {handler: removeGroup, internalOnly: true},
	"extwallet_setPreferences":              {handler: setPreferences, internalOnly: true},
	"extwallet_getPreferences":              {handler: getPreferences, internalOnly: true},
	"extwallet_setWalletNameFlag":           {handler: setWalletNameFlag, internalOnly: true},
	"extwallet_removeWalletNameFlag":        {handler: removeWalletNameFlag, internalOnly: true},
	"extwallet_confirmBackup":               {handler: confirmBackup, internalOnly: true},
	"extwallet_getNoBackupCount":            {handler: getNoBackupCount, internalOnly: true},
	"extwallet_establishSession":            {handler: establishSession, internalOnly: true},
	"extwallet_clearSession":                {handler: clearSession, internalOnly: true},
	"extwallet_getRecoveryPhrase":           {handler: getRecoveryPhrase, internalOnly: true},
	"extwallet_getPrivateKey":               {handler: getPrivateKey, internalOnly: true},
	"extwallet_sendTransaction":             {handler: internalSendTransaction, internalOnly: true},
	"extwallet_signPersonal":                {handler: internalSignPersonal, internalOnly: true},
}

// Dispatcher routes provider calls for one wallet controller, classifying
// each by trust tier before its handler runs.
type Dispatcher struct {
	wallet    *wallet.Controller
	confirmer confirm.Gateway
}

// NewDispatcher builds a dispatcher over the controller and confirmation
// gateway.
func NewDispatcher(w *wallet.Controller, confirmer confirm.Gateway) *Dispatcher {
	return &Dispatcher{wallet: w, confirmer: confirmer}
}

// Dispatch resolves and runs the handler for method.  Unknown methods fail
// with the method-not-found code, internal-only methods fail closed for web
// origins, and handler failures are translated through the taxonomy.
func (d *Dispatcher) Dispatch(ctx context.Context, call wallet.Context, method string, params json.RawMessage) (interface{}, *RPCError) {
	entry, ok := rpcHandlers[method]
	if !ok {
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", method)}
	}
	if entry.internalOnly && !call.Internal {
		log.Warnf("origin %q denied internal method %s", call.Origin, method)
		return nil, jsonError(wallet.ErrOriginNotAllowed)
	}

	result, err := entry.handler(ctx, d, call, params)
	if err != nil {
		return nil, jsonError(err)
	}
	return result, nil
}

// unimplemented handles a provider method that is intentionally
// unsupported.
func unimplemented(context.Context, *Dispatcher, wallet.Context, json.RawMessage) (interface{}, error) {
	return nil, ErrMethodNotImplemented
}

// decodeParams unmarshals a fixed-shape positional parameter list.  Fewer
// parameters than destinations, or a parameter of the wrong shape, is an
// invalid-params failure.
func decodeParams(params json.RawMessage, dst ...interface{}) error {
	var arr []json.RawMessage
	if len(params) > 0 {
		if err := json.Unmarshal(params, &arr); err != nil {
			return InvalidParamsError{fmt.Errorf("params must be an array: %v", err)}
		}
	}
	if len(arr) < len(dst) {
		return InvalidParamsError{fmt.Errorf("expected %d params, got %d", len(dst), len(arr))}
	}
	for i, d := range dst {
		if err := json.Unmarshal(arr[i], d); err != nil {
			return InvalidParamsError{fmt.Errorf("param %d: %v", i, err)}
		}
	}
	return nil
}

// decodeAddress parses a parameter that must be a hex address.
func decodeAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, InvalidParamsError{fmt.Errorf("invalid address %q", raw)}
	}
	return common.HexToAddress(raw), nil
}

func hexAddresses(addrs []common.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Hex())
	}
	return out
}

// ethAccounts returns the addresses visible to the calling origin: the
// current address when permitted, an empty list otherwise.
func ethAccounts(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	addrs, err := d.wallet.Accounts(call)
	if err != nil {
		return nil, err
	}
	return hexAddresses(addrs), nil
}

// ethRequestAccounts returns immediately when the origin is already
// permitted; otherwise it opens a confirmation round trip and records the
// permission on approval.
func ethRequestAccounts(ctx context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	cur, err := d.wallet.CurrentAddress()
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, wallet.ErrNoCurrentAddress
	}
	if d.wallet.AllowedOrigin(call, *cur) {
		return []string{cur.Hex()}, nil
	}

	_, err = confirm.Await(ctx, d.confirmer, "requestAccounts", map[string]string{
		"origin":  call.Origin,
		"address": cur.Hex(),
	})
	if err == confirm.ErrDismissed {
		return nil, ErrUserRejected
	}
	if err != nil {
		return nil, err
	}
	if err := d.wallet.AddPermission(wallet.InternalContext(), call.Origin, *cur); err != nil {
		return nil, err
	}
	return []string{cur.Hex()}, nil
}

// ethChainID resolves the calling origin's chain into its wire id.  No
// permission is required: a deliberate tradeoff, origins may learn the
// chain before being granted any address.
func ethChainID(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	return d.wallet.ChainIDForOrigin(call.Origin)
}

// netVersion is the legacy decimal form of eth_chainId.
func netVersion(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	ch, err := d.wallet.ChainForOrigin(wallet.InternalContext(), call.Origin)
	if err != nil {
		return nil, err
	}
	return ch.DecimalID(), nil
}

// ethSendTransaction validates the from field first (a mismatch fails
// before any confirmation window opens), requires an existing permission
// for the current address, then opens the confirmation round trip and runs
// the pipeline.
func ethSendTransaction(ctx context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var args chain.TxArgs
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}

	cur, err := d.wallet.CurrentAddress()
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, wallet.ErrNoCurrentAddress
	}
	if args.From == nil || *args.From != *cur {
		return nil, wallet.ErrFromMismatch
	}
	if !d.wallet.AllowedOrigin(call, *args.From) {
		return nil, wallet.ErrOriginNotAllowed
	}

	confirmParams := map[string]string{
		"origin": call.Origin,
		"from":   args.From.Hex(),
	}
	if args.To != nil {
		confirmParams["to"] = args.To.Hex()
	}
	if args.Value != nil {
		confirmParams["value"] = args.Value.String()
	}
	if _, err := confirm.Await(ctx, d.confirmer, "sendTransaction", confirmParams); err != nil {
		if err == confirm.ErrDismissed {
			return nil, ErrUserRejectedTxSignature
		}
		return nil, err
	}

	entry, err := d.wallet.SendTransaction(ctx, wallet.InternalContext(), call.Origin, &args)
	if err != nil {
		return nil, err
	}
	return entry.Hash.Hex(), nil
}

// personalSign requires permission for the signing address and a
// confirmation round trip before producing an EIP-191 signature.
func personalSign(ctx context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var (
		data    hexutil.Bytes
		rawAddr string
	)
	if err := decodeParams(params, &data, &rawAddr); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	if !d.wallet.AllowedOrigin(call, addr) {
		return nil, wallet.ErrOriginNotAllowed
	}

	if _, err := confirm.Await(ctx, d.confirmer, "signMessage", map[string]string{
		"origin":  call.Origin,
		"address": addr.Hex(),
		"data":    data.String(),
	}); err != nil {
		if err == confirm.ErrDismissed {
			return nil, ErrUserRejected
		}
		return nil, err
	}

	sig, err := d.wallet.SignPersonal(wallet.InternalContext(), addr, data)
	if err != nil {
		return nil, err
	}
	return sig.String(), nil
}

// ethSignTypedDataV4 requires permission for the signing address and a
// confirmation round trip before producing an EIP-712 signature.  The typed
// data parameter may arrive as an object or a JSON string.
func ethSignTypedDataV4(ctx context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var (
		rawAddr string
		rawData json.RawMessage
	)
	if err := decodeParams(params, &rawAddr, &rawData); err != nil {
		return nil, err
	}
	addr, err := decodeAddress(rawAddr)
	if err != nil {
		return nil, err
	}

	var td apitypes.TypedData
	if len(rawData) > 0 && rawData[0] == '"' {
		var s string
		if err := json.Unmarshal(rawData, &s); err != nil {
			return nil, InvalidParamsError{err}
		}
		rawData = json.RawMessage(s)
	}
	if err := json.Unmarshal(rawData, &td); err != nil {
		return nil, InvalidParamsError{fmt.Errorf("typed data: %v", err)}
	}

	if !d.wallet.AllowedOrigin(call, addr) {
		return nil, wallet.ErrOriginNotAllowed
	}

	if _, err := confirm.Await(ctx, d.confirmer, "signTypedData", map[string]string{
		"origin":  call.Origin,
		"address": addr.Hex(),
		"domain":  td.Domain.Name,
	}); err != nil {
		if err == confirm.ErrDismissed {
			return nil, ErrUserRejected
		}
		return nil, err
	}

	sig, err := d.wallet.SignTypedData(wallet.InternalContext(), addr, td)
	if err != nil {
		return nil, err
	}
	return sig.String(), nil
}

// walletSwitchEthereumChain switches the origin's chain immediately, with
// no confirmation, when the target differs from the current selection.
// Switching to the already-selected chain is a no-op success with no state
// change event.
func walletSwitchEthereumChain(_ context.Context, d *Dispatcher, call wallet.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		ChainID string `json:"chainId"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	cur, err := d.wallet.CurrentAddress()
	if err != nil {
		return nil, err
	}
	if cur == nil || !d.wallet.AllowedOrigin(call, *cur) {
		return nil, wallet.ErrOriginNotAllowed
	}

	target, err := d.wallet.ResolveChain(p.ChainID)
	if err != nil {
		return nil, err
	}
	current, err := d.wallet.ChainForOrigin(wallet.InternalContext(), call.Origin)
	if err != nil {
		return nil, err
	}
	if target == current {
		return nil, nil
	}
	if err := d.wallet.SetChainForOrigin(wallet.InternalContext(), target, call.Origin); err != nil {
		return nil, err
	}
	return nil, nil
}

// permissionDescriptor is the wire shape of a wallet_getPermissions entry.
type permissionDescriptor struct {
	ParentCapability string `json:"parentCapability"`
}

// walletRequestPermissions is a thin wrapper over the eth_accounts
// capability: requesting it runs the eth_requestAccounts flow.
func walletRequestPermissions(ctx context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	if _, err := ethRequestAccounts(ctx, d, call, nil); err != nil {
		return nil, err
	}
	return []permissionDescriptor{{ParentCapability: "eth_accounts"}}, nil
}

// walletGetPermissions reports whether the origin holds the eth_accounts
// capability.
func walletGetPermissions(_ context.Context, d *Dispatcher, call wallet.Context, _ json.RawMessage) (interface{}, error) {
	addrs, err := d.wallet.Accounts(call)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return []permissionDescriptor{}, nil
	}
	return []permissionDescriptor{{ParentCapability: "eth_accounts"}}, nil
}
