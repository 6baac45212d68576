package chain

import (
	"context"
	"math/big"
	"net"
	"net/http"
	"sync"

	"github.com/abesuite/go-socks/socks"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/extwallet/extwallet/chainreg"
)

// EthBackend is a Backend over per-chain JSON-RPC node connections.
// Connections are dialed lazily from the registry's RPC endpoint and cached
// per chain.
type EthBackend struct {
	registry   chainreg.Registry
	httpClient *http.Client

	mtx     sync.Mutex
	clients map[chainreg.Chain]*ethclient.Client
}

// NewEthBackend returns a backend resolving endpoints through registry.
func NewEthBackend(registry chainreg.Registry) *EthBackend {
	return &EthBackend{
		registry: registry,
		clients:  make(map[chainreg.Chain]*ethclient.Client),
	}
}

// NewProxiedEthBackend returns a backend that dials every endpoint through
// the given SOCKS5 proxy.
func NewProxiedEthBackend(registry chainreg.Registry, proxyAddr, user, pass string) *EthBackend {
	proxy := &socks.Proxy{
		Addr:     proxyAddr,
		Username: user,
		Password: pass,
	}
	b := NewEthBackend(registry)
	b.httpClient = &http.Client{
		Transport: &http.Transport{
			Dial: func(network, addr string) (net.Conn, error) {
				return proxy.Dial(network, addr)
			},
		},
	}
	return b
}

func (b *EthBackend) client(chain chainreg.Chain) (*ethclient.Client, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if c, ok := b.clients[chain]; ok {
		return c, nil
	}
	url, err := b.registry.RPCURL(chain)
	if err != nil {
		return nil, err
	}

	var rc *rpc.Client
	if b.httpClient != nil {
		rc, err = rpc.DialHTTPWithClient(url, b.httpClient)
	} else {
		rc, err = rpc.Dial(url)
	}
	if err != nil {
		return nil, err
	}
	c := ethclient.NewClient(rc)
	b.clients[chain] = c
	return c, nil
}

// PrepareTx fills the missing nonce and gas limit of args from the node's
// pending state.  Already-present fields are left alone.
func (b *EthBackend) PrepareTx(ctx context.Context, chain chainreg.Chain, args *TxArgs) error {
	c, err := b.client(chain)
	if err != nil {
		return err
	}

	if args.Nonce == nil {
		nonce, err := c.PendingNonceAt(ctx, *args.From)
		if err != nil {
			return err
		}
		n := hexutil.Uint64(nonce)
		args.Nonce = &n
	}
	if args.Gas == nil {
		call := ethereum.CallMsg{
			From: *args.From,
			To:   args.To,
			Data: args.Data,
		}
		if args.Value != nil {
			call.Value = args.Value.ToInt()
		}
		gas, err := c.EstimateGas(ctx, call)
		if err != nil {
			return err
		}
		g := hexutil.Uint64(gas)
		args.Gas = &g
	}
	return nil
}

// SuggestGasPrice fetches a gas price from the chain's node.
func (b *EthBackend) SuggestGasPrice(ctx context.Context, chain chainreg.Chain) (*big.Int, error) {
	c, err := b.client(chain)
	if err != nil {
		return nil, err
	}
	return c.SuggestGasPrice(ctx)
}

// SendTx broadcasts a signed transaction.
func (b *EthBackend) SendTx(ctx context.Context, chain chainreg.Chain, tx *types.Transaction) (common.Hash, error) {
	c, err := b.client(chain)
	if err != nil {
		return common.Hash{}, err
	}
	if err := c.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}
