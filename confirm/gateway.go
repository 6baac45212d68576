// Package confirm defines the user-confirmation gateway contract.  The core
// supplies a human-readable route and parameters; the gateway opens an
// approval flow and calls exactly one of the two callbacks exactly once.
package confirm

import (
	"context"
	"errors"
)

// ErrDismissed is the terminal failure produced when the user dismisses a
// pending confirmation.  There is no timeout-based cancellation.
var ErrDismissed = errors.New("confirmation dismissed by user")

// Request describes one confirmation round trip.
type Request struct {
	// Route names the approval screen to open, e.g. "requestAccounts" or
	// "sendTransaction".
	Route string

	// Params are the human-readable parameters shown to the user.  They
	// must never contain secret material.
	Params map[string]string

	// OnResolve is called with the approval result.
	OnResolve func(result interface{})

	// OnDismiss is called when the user dismisses the flow.
	OnDismiss func()
}

// Gateway opens confirmation flows.  Implementations are expected to call
// exactly one of OnResolve and OnDismiss, exactly once.
type Gateway interface {
	Open(req *Request) error
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(req *Request) error

// Open implements Gateway.
func (f GatewayFunc) Open(req *Request) error {
	return f(req)
}

// Await opens a confirmation and blocks until it resolves, is dismissed, or
// the context ends.  Dismissal surfaces as ErrDismissed.
func Await(ctx context.Context, gw Gateway, route string, params map[string]string) (interface{}, error) {
	type outcome struct {
		result interface{}
		err    error
	}
	ch := make(chan outcome, 1)

	err := gw.Open(&Request{
		Route:  route,
		Params: params,
		OnResolve: func(result interface{}) {
			ch <- outcome{result: result}
		},
		OnDismiss: func() {
			ch <- outcome{err: ErrDismissed}
		},
	})
	if err != nil {
		return nil, err
	}

	select {
	case out := <-ch:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
