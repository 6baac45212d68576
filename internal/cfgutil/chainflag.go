package cfgutil

import (
	"github.com/extwallet/extwallet/chainreg"
)

// ChainFlag embeds a chainreg.Chain and implements the flags.Marshaler and
// Unmarshaler interfaces so it can be used as a config struct field.  The
// flag accepts both decimal ("137") and hex ("0x89") chain ids.
type ChainFlag struct {
	chainreg.Chain
}

// NewChainFlag creates a ChainFlag with a default chain.
func NewChainFlag(defaultValue chainreg.Chain) *ChainFlag {
	return &ChainFlag{defaultValue}
}

// MarshalFlag satisifes the flags.Marshaler interface.
func (c *ChainFlag) MarshalFlag() (string, error) {
	return c.Chain.DecimalID(), nil
}

// UnmarshalFlag satisifes the flags.Unmarshaler interface.
func (c *ChainFlag) UnmarshalFlag(value string) error {
	chain, err := chainreg.ParseChain(value)
	if err != nil {
		return err
	}
	c.Chain = chain
	return nil
}
