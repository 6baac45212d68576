package container

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// Standard BIP-39 test phrase and its first derived address at the default
// path, plus a second well-known key pair for import tests.
const (
	testPhrase = "abandon abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon about"
	testPhraseAddr0 = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

	testPrivKeyHex  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testPrivKeyAddr = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func mnemonicWallet(t *testing.T, index string) *BareWallet {
	t.Helper()
	w, err := DeriveWallet(testPhrase, DefaultDerivationBase+"/"+index)
	require.NoError(t, err)
	return w
}

func privKeyWallet(t *testing.T) *BareWallet {
	t.Helper()
	w, err := Restore(Partial{PrivateKeyHex: testPrivKeyHex})
	require.NoError(t, err)
	return w
}

func TestSeedTypeRoundTrip(t *testing.T) {
	for _, st := range []SeedType{SeedMnemonic, SeedPrivateKey} {
		parsed, err := ParseSeedType(st.String())
		require.NoError(t, err)
		require.Equal(t, st, parsed)
	}
	_, err := ParseSeedType("hardware")
	require.Error(t, err)
}

func TestDeriveWalletDeterministic(t *testing.T) {
	w := mnemonicWallet(t, "0")
	require.Equal(t, common.HexToAddress(testPhraseAddr0), w.Address)
	require.NotNil(t, w.Mnemonic)
	require.Equal(t, testPhrase, w.Mnemonic.Phrase)
	require.Equal(t, DefaultDerivationPath, w.Mnemonic.Path)

	// Deriving the same path twice yields the same key.
	again := mnemonicWallet(t, "0")
	require.Equal(t, w.Address, again.Address)
}

func TestDeriveWalletRejectsBadPhrase(t *testing.T) {
	_, err := DeriveWallet("not a valid phrase at all", DefaultDerivationPath)
	require.ErrorIs(t, err, ErrBadMnemonic)
}

func TestRestoreFromPrivateKey(t *testing.T) {
	w := privKeyWallet(t)
	require.Equal(t, common.HexToAddress(testPrivKeyAddr), w.Address)
	require.Nil(t, w.Mnemonic)

	// A 0x prefix on the key is accepted too.
	w2, err := Restore(Partial{PrivateKeyHex: "0x" + testPrivKeyHex})
	require.NoError(t, err)
	require.Equal(t, w.Address, w2.Address)
}

func TestRestoreGeneratesWhenEmpty(t *testing.T) {
	w, err := Restore(Partial{Name: "fresh"})
	require.NoError(t, err)
	require.NotNil(t, w.Mnemonic)
	require.Equal(t, "fresh", w.Name)
	require.NotEqual(t, common.Address{}, w.Address)
}

func TestPrivateKeyContainerHoldsExactlyOne(t *testing.T) {
	_, err := NewPrivateKeyContainer()
	require.ErrorIs(t, err, ErrSingleKeyContainer)

	_, err = NewPrivateKeyContainer(privKeyWallet(t), privKeyWallet(t))
	require.ErrorIs(t, err, ErrSingleKeyContainer)

	c, err := NewPrivateKeyContainer(privKeyWallet(t))
	require.NoError(t, err)
	require.Equal(t, SeedPrivateKey, c.SeedType())
	require.Equal(t, 1, c.Len())
	require.Empty(t, c.Mnemonic())

	// No wallet can ever be added, mnemonic-carrying or not.
	err = c.AddWallet(mnemonicWallet(t, "0"))
	require.ErrorIs(t, err, ErrSingleKeyContainer)
	require.Equal(t, 1, c.Len())
}

func TestMnemonicContainerInvariants(t *testing.T) {
	_, err := NewMnemonicContainer()
	require.ErrorIs(t, err, ErrEmptyContainer)

	// Wallets without a phrase are rejected.
	_, err = NewMnemonicContainer(privKeyWallet(t))
	require.ErrorIs(t, err, ErrMissingMnemonic)

	w0 := mnemonicWallet(t, "0")
	c, err := NewMnemonicContainer(w0)
	require.NoError(t, err)

	// Duplicate addresses are rejected.
	err = c.AddWallet(mnemonicWallet(t, "0"))
	require.ErrorIs(t, err, ErrDuplicateAddress)

	require.NoError(t, c.AddWallet(mnemonicWallet(t, "1")))
	require.Equal(t, 2, c.Len())
	require.Equal(t, w0.Address, c.FirstWallet().Address)
	require.Equal(t, testPhrase, c.Mnemonic())
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	c, err := NewMnemonicContainer(mnemonicWallet(t, "0"))
	require.NoError(t, err)

	lower := strings.ToLower(testPhraseAddr0)
	upper := "0x" + strings.ToUpper(lower[2:])
	require.NotNil(t, c.WalletByAddress(lower))
	require.NotNil(t, c.WalletByAddress(upper))
	require.Nil(t, c.WalletByAddress("0x0000000000000000000000000000000000000001"))
	require.Nil(t, c.WalletByAddress("garbage"))
}

func TestRemoveWallet(t *testing.T) {
	c, err := NewMnemonicContainer(mnemonicWallet(t, "0"), mnemonicWallet(t, "1"))
	require.NoError(t, err)

	// Removing an absent address is a no-op.
	c.RemoveWallet("0x0000000000000000000000000000000000000001")
	require.Equal(t, 2, c.Len())

	c.RemoveWallet(strings.ToLower(testPhraseAddr0))
	require.Equal(t, 1, c.Len())
	require.Nil(t, c.WalletByAddress(testPhraseAddr0))
}

func TestDeriveNextSkipsExistingAddresses(t *testing.T) {
	w0 := mnemonicWallet(t, "0")
	c, err := NewMnemonicContainer(w0)
	require.NoError(t, err)

	w1, err := c.DeriveNext()
	require.NoError(t, err)
	require.NotEqual(t, w0.Address, w1.Address)
	require.Equal(t, 2, c.Len())

	// The next derivation must skip both occupied indexes.
	w2, err := c.DeriveNext()
	require.NoError(t, err)
	require.NotEqual(t, w0.Address, w2.Address)
	require.NotEqual(t, w1.Address, w2.Address)

	// Private-key containers cannot derive.
	pk, err := NewPrivateKeyContainer(privKeyWallet(t))
	require.NoError(t, err)
	_, err = pk.DeriveNext()
	require.ErrorIs(t, err, ErrSingleKeyContainer)
}

func TestCloneIsIndependent(t *testing.T) {
	c, err := NewMnemonicContainer(mnemonicWallet(t, "0"))
	require.NoError(t, err)

	clone := c.Clone()
	require.NoError(t, clone.AddWallet(mnemonicWallet(t, "1")))
	clone.FirstWallet().Name = "renamed"

	require.Equal(t, 1, c.Len())
	require.Empty(t, c.FirstWallet().Name)
}

func TestStringRedactsKeyMaterial(t *testing.T) {
	w := mnemonicWallet(t, "0")
	s := w.String()
	require.Contains(t, s, w.Address.Hex())
	require.NotContains(t, s, "abandon")
}

func TestSnapshotRoundTrip(t *testing.T) {
	c, err := NewMnemonicContainer(mnemonicWallet(t, "0"), mnemonicWallet(t, "1"))
	require.NoError(t, err)
	c.Wallets()[1].Name = "spending"

	restored, err := FromSnapshot(c.Snapshot())
	require.NoError(t, err)
	require.Equal(t, c.SeedType(), restored.SeedType())
	require.Equal(t, c.Len(), restored.Len())
	require.Equal(t, c.Mnemonic(), restored.Mnemonic())
	require.Equal(t, "spending", restored.Wallets()[1].Name)
	require.Equal(t, c.FirstWallet().Address, restored.FirstWallet().Address)
}
