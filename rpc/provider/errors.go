package provider

import (
	"errors"

	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/confirm"
	"github.com/extwallet/extwallet/record"
	"github.com/extwallet/extwallet/session"
	"github.com/extwallet/extwallet/storage"
	"github.com/extwallet/extwallet/vault"
	"github.com/extwallet/extwallet/wallet"
)

// Provider error codes.  The positive codes are the EIP-1193 provider
// errors; the negative ones are standard JSON-RPC.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200

	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// Error types to simplify the reporting of specific categories of errors.
type (
	// InvalidParamsError describes a request whose parameter shape does
	// not match the method's fixed shape.
	InvalidParamsError struct {
		error
	}
)

// Errors variables that are defined once here to avoid duplication below.
var (
	// ErrMethodNotImplemented is returned for provider methods that are
	// intentionally unsupported.
	ErrMethodNotImplemented = errors.New("method not implemented")

	// ErrUserRejected is the terminal failure when the user dismisses a
	// confirmation.
	ErrUserRejected = errors.New("user rejected request")

	// ErrUserRejectedTxSignature is the terminal failure when the user
	// dismisses a transaction confirmation.
	ErrUserRejectedTxSignature = errors.New("user rejected transaction signature")
)

// RPCError is the wire form of a failed call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

// jsonError translates a handler failure into its wire form.  Every
// taxonomy member maps to a fixed code; anything unrecognized is reported as
// an internal error.
func jsonError(err error) *RPCError {
	if err == nil {
		return nil
	}
	if e, ok := err.(*RPCError); ok {
		return e
	}

	code := CodeInternal
	switch {
	case errors.Is(err, wallet.ErrOriginNotAllowed):
		code = CodeUnauthorized
	case errors.Is(err, ErrMethodNotImplemented):
		code = CodeUnsupportedMethod
	case errors.Is(err, ErrUserRejected), errors.Is(err, ErrUserRejectedTxSignature),
		errors.Is(err, confirm.ErrDismissed):
		code = CodeUserRejected
	case errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, wallet.ErrBadCredentials),
		errors.Is(err, vault.ErrBadPassphrase):
		code = CodeUnauthorized
	case errors.Is(err, record.ErrUnknownAddress),
		errors.Is(err, record.ErrUnknownGroup),
		errors.Is(err, chainreg.ErrBadChainID),
		errors.Is(err, chainreg.ErrUnknownChain),
		errors.Is(err, wallet.ErrFromMismatch),
		errors.Is(err, wallet.ErrChainMismatch),
		errors.Is(err, wallet.ErrNoPendingWallet):
		code = CodeInvalidParams
	case errors.Is(err, storage.ErrRecordNotFound),
		errors.Is(err, wallet.ErrRecordNotFound):
		code = CodeInternal
	}
	switch err.(type) {
	case InvalidParamsError:
		code = CodeInvalidParams
	}
	return &RPCError{Code: code, Message: err.Error()}
}
