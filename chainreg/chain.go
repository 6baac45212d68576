package chainreg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Chain is a normalized blockchain network identifier.  Two Chain values
// compare equal whenever they name the same network, regardless of whether
// the identifier was originally given in decimal or 0x-prefixed hex form.
type Chain uint64

// Built-in chains known to the default registry.
const (
	Mainnet Chain = 1
	Sepolia Chain = 11155111
	Polygon Chain = 137
	Base    Chain = 8453
)

// DefaultChain is the chain an origin resolves to before it has explicitly
// selected one.
const DefaultChain = Mainnet

// ErrBadChainID describes a chain identifier that is neither a decimal nor a
// 0x-prefixed hex integer.
var ErrBadChainID = errors.New("chain id is not a decimal or hex integer")

// ParseChain normalizes a chain identifier given in either decimal
// ("137") or hex ("0x89") string form.
func ParseChain(s string) (Chain, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadChainID
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	id, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, ErrBadChainID
	}
	return Chain(id), nil
}

// HexID returns the wire-format (0x-prefixed hex) identifier of the chain.
func (c Chain) HexID() string {
	return fmt.Sprintf("0x%x", uint64(c))
}

// DecimalID returns the decimal string identifier of the chain, as used by
// the legacy net_version method.
func (c Chain) DecimalID() string {
	return strconv.FormatUint(uint64(c), 10)
}

// String returns the decimal representation of the chain id.
func (c Chain) String() string {
	return c.DecimalID()
}
