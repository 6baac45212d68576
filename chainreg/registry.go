package chainreg

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownChain describes a chain that is not present in the registry.
var ErrUnknownChain = errors.New("chain is not known to the registry")

// Registry resolves normalized chains into their wire identifiers and RPC
// endpoints.  Implementations must be safe for concurrent use.
type Registry interface {
	// ChainID returns the wire-format (hex) chain id for the given chain.
	ChainID(chain Chain) (string, error)

	// ChainByID resolves a wire-format chain id back into a normalized
	// chain.
	ChainByID(wireID string) (Chain, error)

	// RPCURL returns the node RPC endpoint the wallet should use for the
	// given chain.
	RPCURL(chain Chain) (string, error)
}

// Network describes a single entry of a static registry.
type Network struct {
	Name   string
	RPCURL string
}

// StaticRegistry is a Registry backed by a fixed in-memory network table.
// Entries may be added or replaced at startup via AddNetwork; lookups after
// that are read-mostly.
type StaticRegistry struct {
	mtx      sync.RWMutex
	networks map[Chain]Network
}

// NewStaticRegistry returns a registry preloaded with the built-in networks.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		networks: map[Chain]Network{
			Mainnet: {Name: "mainnet", RPCURL: "https://cloudflare-eth.com"},
			Sepolia: {Name: "sepolia", RPCURL: "https://rpc.sepolia.org"},
			Polygon: {Name: "polygon", RPCURL: "https://polygon-rpc.com"},
			Base:    {Name: "base", RPCURL: "https://mainnet.base.org"},
		},
	}
}

// AddNetwork adds or replaces a network entry.
func (r *StaticRegistry) AddNetwork(chain Chain, n Network) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.networks[chain] = n
}

// ChainID returns the wire-format chain id for chain.
func (r *StaticRegistry) ChainID(chain Chain) (string, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, ok := r.networks[chain]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChain, chain)
	}
	return chain.HexID(), nil
}

// ChainByID resolves a wire-format chain id into a normalized chain.
func (r *StaticRegistry) ChainByID(wireID string) (Chain, error) {
	chain, err := ParseChain(wireID)
	if err != nil {
		return 0, err
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, ok := r.networks[chain]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownChain, wireID)
	}
	return chain, nil
}

// RPCURL returns the configured RPC endpoint for chain.
func (r *StaticRegistry) RPCURL(chain Chain) (string, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	n, ok := r.networks[chain]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChain, chain)
	}
	return n.RPCURL, nil
}
