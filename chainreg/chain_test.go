package chainreg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChainNormalizes(t *testing.T) {
	// Decimal and hex identifiers of the same network compare equal.
	dec, err := ParseChain("137")
	require.NoError(t, err)
	hex, err := ParseChain("0x89")
	require.NoError(t, err)
	require.Equal(t, dec, hex)
	require.Equal(t, Polygon, dec)

	upper, err := ParseChain("0X89")
	require.NoError(t, err)
	require.Equal(t, Polygon, upper)

	padded, err := ParseChain("  1\n")
	require.NoError(t, err)
	require.Equal(t, Mainnet, padded)
}

func TestParseChainRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "0x", "mainnet", "-1", "1.5", "0xzz"} {
		_, err := ParseChain(s)
		require.ErrorIs(t, err, ErrBadChainID, "input %q", s)
	}
}

func TestChainIdentifiers(t *testing.T) {
	require.Equal(t, "0x89", Polygon.HexID())
	require.Equal(t, "137", Polygon.DecimalID())
	require.Equal(t, "0x1", Mainnet.HexID())
	require.Equal(t, "11155111", Sepolia.DecimalID())
}

func TestStaticRegistryLookup(t *testing.T) {
	r := NewStaticRegistry()

	id, err := r.ChainID(Base)
	require.NoError(t, err)
	require.Equal(t, "0x2105", id)

	// Wire ids resolve in either representation.
	ch, err := r.ChainByID("0x89")
	require.NoError(t, err)
	require.Equal(t, Polygon, ch)
	ch, err = r.ChainByID("137")
	require.NoError(t, err)
	require.Equal(t, Polygon, ch)

	url, err := r.RPCURL(Mainnet)
	require.NoError(t, err)
	require.NotEmpty(t, url)
}

func TestStaticRegistryUnknownChain(t *testing.T) {
	r := NewStaticRegistry()

	_, err := r.ChainID(Chain(424242))
	require.ErrorIs(t, err, ErrUnknownChain)
	_, err = r.ChainByID("0x67932")
	require.ErrorIs(t, err, ErrUnknownChain)
	_, err = r.RPCURL(Chain(424242))
	require.ErrorIs(t, err, ErrUnknownChain)

	_, err = r.ChainByID("bogus")
	require.ErrorIs(t, err, ErrBadChainID)
}

func TestStaticRegistryAddNetwork(t *testing.T) {
	r := NewStaticRegistry()
	r.AddNetwork(Chain(31337), Network{Name: "devnet", RPCURL: "http://127.0.0.1:8545"})

	ch, err := r.ChainByID("0x7a69")
	require.NoError(t, err)
	require.Equal(t, Chain(31337), ch)

	// Overriding a built-in replaces its endpoint.
	r.AddNetwork(Mainnet, Network{Name: "mainnet", RPCURL: "http://127.0.0.1:9999"})
	url, err := r.RPCURL(Mainnet)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9999", url)
}
