package wallet

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/record"
)

// EventKind classifies controller notifications.
type EventKind int

// Event kinds.  Exactly one event of the relevant kind is published per
// successful mutation; nothing is published for failed or no-op calls.
const (
	// RecordUpdated signals any committed change of the record.
	RecordUpdated EventKind = iota

	// CurrentAddressChanged signals a new current address.
	CurrentAddressChanged

	// ChainChanged signals an origin's selected chain changed.
	ChainChanged

	// PermissionsUpdated signals an origin's address grants changed.
	PermissionsUpdated

	// TransactionPending signals a freshly submitted transaction.
	TransactionPending
)

// Event is one notification published to subscribers.  Events carry only
// addresses and sanitized transaction entries, never key material.
type Event struct {
	Kind    EventKind
	Address common.Address
	Origin  string
	Chain   chainreg.Chain
	Tx      *record.TxEntry
}

// Subscribe registers ch to receive controller events.  The subscription is
// dropped when ch is unsubscribed or the send would block forever; external
// subscribers are expected to drain promptly.
func (c *Controller) Subscribe(ch chan<- Event) event.Subscription {
	return c.feed.Subscribe(ch)
}

func (c *Controller) publish(ev Event) {
	c.feed.Send(ev)
}
