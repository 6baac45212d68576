package wallet

import (
	"bytes"
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"

	"github.com/extwallet/extwallet/chain"
	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/record"
	"github.com/extwallet/extwallet/session"
	"github.com/extwallet/extwallet/storage"
	"github.com/extwallet/extwallet/vault"
)

const (
	testPhrase = "abandon abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon about"
	testPhrase2 = "legal winner thank year wave sausage worth useful legal " +
		"winner thank yellow"
	testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	originApp = "https://app.example"
)

var (
	testPass  = []byte("correct horse battery staple")
	testStart = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
)

// memStore is an in-memory storage.Gateway.  It exercises the same
// marshal/unmarshal path as the bolt store but keeps blobs in a map and
// checks the credential by comparison instead of a KDF.
type memStore struct {
	mtx   sync.Mutex
	blobs map[string][]byte
	creds map[string][]byte
	saves int
}

func newMemStore() *memStore {
	return &memStore{
		blobs: make(map[string][]byte),
		creds: make(map[string][]byte),
	}
}

func (s *memStore) Ready(ctx context.Context) error { return ctx.Err() }

func (s *memStore) Read(id string, key []byte) (*record.Record, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	blob, ok := s.blobs[id]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	if !bytes.Equal(s.creds[id], key) {
		return nil, vault.ErrBadPassphrase
	}
	return record.Unmarshal(blob)
}

func (s *memStore) Save(id string, key []byte, r *record.Record) error {
	data, err := record.Marshal(r)
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if cred, ok := s.creds[id]; ok && !bytes.Equal(cred, key) {
		return vault.ErrBadPassphrase
	}
	s.blobs[id] = data
	s.creds[id] = append([]byte(nil), key...)
	s.saves++
	return nil
}

func (s *memStore) Check(id string, key []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return storage.ErrRecordNotFound
	}
	if !bytes.Equal(s.creds[id], key) {
		return vault.ErrBadPassphrase
	}
	return nil
}

func (s *memStore) saveCount() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.saves
}

// fakeBackend is a chain.Backend that fills deterministic values and records
// what was broadcast.
type fakeBackend struct {
	mtx      sync.Mutex
	prepared int
	sent     []*types.Transaction
}

func (b *fakeBackend) PrepareTx(_ context.Context, _ chainreg.Chain, args *chain.TxArgs) error {
	b.mtx.Lock()
	b.prepared++
	b.mtx.Unlock()
	if args.Nonce == nil {
		n := hexutil.Uint64(7)
		args.Nonce = &n
	}
	if args.Gas == nil {
		g := hexutil.Uint64(21000)
		args.Gas = &g
	}
	return nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context, chainreg.Chain) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeBackend) SendTx(_ context.Context, _ chainreg.Chain, tx *types.Transaction) (common.Hash, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.sent = append(b.sent, tx)
	return tx.Hash(), nil
}

func (b *fakeBackend) lastSent() *types.Transaction {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if len(b.sent) == 0 {
		return nil
	}
	return b.sent[len(b.sent)-1]
}

type testEnv struct {
	ctrl    *Controller
	store   *memStore
	backend *fakeBackend
	clk     *clock.TestClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   newMemStore(),
		backend: &fakeBackend{},
		clk:     clock.NewTestClock(testStart),
	}
	env.ctrl = New(&Config{
		ID:       "primary",
		Store:    env.store,
		Registry: chainreg.NewStaticRegistry(),
		Backend:  env.backend,
		Clock:    env.clk,
	})
	require.NoError(t, env.ctrl.Load(context.Background(), testPass))
	return env
}

// stageAndCommit stages a wallet of the given kind and commits it, returning
// the staged addresses and the committed group id.
func stageAndCommit(t *testing.T, c *Controller, kind PendingKind, secret string) ([]common.Address, string) {
	t.Helper()
	addrs, err := c.StagePendingWallet(InternalContext(), kind, secret)
	require.NoError(t, err)
	groupID, err := c.SavePendingWallet(InternalContext())
	require.NoError(t, err)
	return addrs, groupID
}

func TestLoadCreatesFreshRecord(t *testing.T) {
	env := newTestEnv(t)

	cur, err := env.ctrl.CurrentAddress()
	require.NoError(t, err)
	require.Nil(t, cur)

	// The freshly created record was persisted.
	require.NoError(t, env.store.Check("primary", testPass))

	// Loading again with a wrong credential is a credential problem.
	err = env.ctrl.Load(context.Background(), []byte("wrong"))
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestOperationsBeforeLoad(t *testing.T) {
	c := New(&Config{
		ID:       "primary",
		Store:    newMemStore(),
		Registry: chainreg.NewStaticRegistry(),
		Backend:  &fakeBackend{},
	})
	_, err := c.Accounts(InternalContext())
	require.ErrorIs(t, err, ErrRecordNotFound)
	err = c.SetCurrentAddress(InternalContext(), common.Address{})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGenerateStageCommit(t *testing.T) {
	env := newTestEnv(t)

	addrs, err := env.ctrl.StagePendingWallet(InternalContext(), PendingGenerate, "")
	require.NoError(t, err)
	require.Len(t, addrs, 1)

	// Nothing is persisted while the wallet is only staged.
	saves := env.store.saveCount()
	groups, err := env.ctrl.Groups(InternalContext())
	require.NoError(t, err)
	require.Empty(t, groups)

	groupID, err := env.ctrl.SavePendingWallet(InternalContext())
	require.NoError(t, err)
	require.Greater(t, env.store.saveCount(), saves)

	groups, err = env.ctrl.Groups(InternalContext())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, groupID, groups[0].ID)
	require.Equal(t, addrs, groups[0].Addresses)
	require.Equal(t, "mnemonic", groups[0].SeedType)
	require.Equal(t, "generated", groups[0].Origin)
	require.Nil(t, groups[0].LastBackedUp)

	// The first committed wallet became current.
	cur, err := env.ctrl.CurrentAddress()
	require.NoError(t, err)
	require.Equal(t, addrs[0], *cur)

	// A second commit without a stage fails.
	_, err = env.ctrl.SavePendingWallet(InternalContext())
	require.ErrorIs(t, err, ErrNoPendingWallet)
}

func TestDiscardPendingWallet(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ctrl.StagePendingWallet(InternalContext(), PendingGenerate, "")
	require.NoError(t, err)
	require.NoError(t, env.ctrl.DiscardPendingWallet(InternalContext()))
	_, err = env.ctrl.SavePendingWallet(InternalContext())
	require.ErrorIs(t, err, ErrNoPendingWallet)
}

func TestStageImportVariants(t *testing.T) {
	env := newTestEnv(t)

	addrs, _ := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	require.Equal(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), addrs[0])

	addrs, _ = stageAndCommit(t, env.ctrl, PendingImportPrivateKey, testKeyHex)
	require.Equal(t, common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"), addrs[0])

	groups, err := env.ctrl.Groups(InternalContext())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "privateKey", groups[1].SeedType)
	require.Equal(t, "imported", groups[1].Origin)

	// A bad phrase never reaches the staged slot.
	_, err = env.ctrl.StagePendingWallet(InternalContext(), PendingImportMnemonic, "junk phrase")
	require.Error(t, err)
}

func TestInternalOnlyGating(t *testing.T) {
	env := newTestEnv(t)
	web := OriginContext(originApp)

	_, err := env.ctrl.StagePendingWallet(web, PendingGenerate, "")
	require.ErrorIs(t, err, ErrOriginNotAllowed)
	_, err = env.ctrl.SavePendingWallet(web)
	require.ErrorIs(t, err, ErrOriginNotAllowed)
	require.ErrorIs(t, env.ctrl.AddPermission(web, originApp, common.Address{}), ErrOriginNotAllowed)
	require.ErrorIs(t, env.ctrl.SetCurrentAddress(web, common.Address{}), ErrOriginNotAllowed)
	require.ErrorIs(t, env.ctrl.SetChainForOrigin(web, chainreg.Polygon, originApp), ErrOriginNotAllowed)
	_, err = env.ctrl.RevealRecoveryPhrase(web, "id")
	require.ErrorIs(t, err, ErrOriginNotAllowed)
	_, err = env.ctrl.Transactions(web)
	require.ErrorIs(t, err, ErrOriginNotAllowed)
	_, err = env.ctrl.SendTransaction(context.Background(), web, originApp, &chain.TxArgs{})
	require.ErrorIs(t, err, ErrOriginNotAllowed)
	_, err = env.ctrl.SignPersonal(web, common.Address{}, nil)
	require.ErrorIs(t, err, ErrOriginNotAllowed)
}

func TestAccountsVisibility(t *testing.T) {
	env := newTestEnv(t)
	web := OriginContext(originApp)

	// Empty record: everyone sees an empty list.
	addrs, err := env.ctrl.Accounts(web)
	require.NoError(t, err)
	require.Empty(t, addrs)

	staged, _ := stageAndCommit(t, env.ctrl, PendingGenerate, "")
	cur := staged[0]

	// Internal sees the current address, the ungranted origin does not.
	addrs, err = env.ctrl.Accounts(InternalContext())
	require.NoError(t, err)
	require.Equal(t, []common.Address{cur}, addrs)
	addrs, err = env.ctrl.Accounts(web)
	require.NoError(t, err)
	require.Empty(t, addrs)

	require.NoError(t, env.ctrl.AddPermission(InternalContext(), originApp, cur))
	addrs, err = env.ctrl.Accounts(web)
	require.NoError(t, err)
	require.Equal(t, []common.Address{cur}, addrs)

	// Revoking the grant hides the address again.
	require.NoError(t, env.ctrl.RemovePermission(InternalContext(), originApp, cur))
	addrs, err = env.ctrl.Accounts(web)
	require.NoError(t, err)
	require.Empty(t, addrs)
}

func TestChainForOriginDefaultsAndSwitches(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.ctrl.ChainIDForOrigin(originApp)
	require.NoError(t, err)
	require.Equal(t, "0x1", id)

	require.NoError(t, env.ctrl.SetChainForOrigin(InternalContext(), chainreg.Polygon, originApp))
	id, err = env.ctrl.ChainIDForOrigin(originApp)
	require.NoError(t, err)
	require.Equal(t, "0x89", id)

	// Another origin is unaffected.
	id, err = env.ctrl.ChainIDForOrigin("https://dex.example")
	require.NoError(t, err)
	require.Equal(t, "0x1", id)
}

func TestMutationEvents(t *testing.T) {
	env := newTestEnv(t)
	events := make(chan Event, 16)
	sub := env.ctrl.Subscribe(events)
	defer sub.Unsubscribe()

	addrs, _ := stageAndCommit(t, env.ctrl, PendingGenerate, "")
	ev := <-events
	require.Equal(t, RecordUpdated, ev.Kind)

	require.NoError(t, env.ctrl.AddPermission(InternalContext(), originApp, addrs[0]))
	ev = <-events
	require.Equal(t, PermissionsUpdated, ev.Kind)
	require.Equal(t, originApp, ev.Origin)
	require.Equal(t, addrs[0], ev.Address)

	require.NoError(t, env.ctrl.SetChainForOrigin(InternalContext(), chainreg.Base, originApp))
	ev = <-events
	require.Equal(t, ChainChanged, ev.Kind)
	require.Equal(t, chainreg.Base, ev.Chain)

	require.NoError(t, env.ctrl.SetCurrentAddress(InternalContext(), addrs[0]))
	ev = <-events
	require.Equal(t, CurrentAddressChanged, ev.Kind)
	require.Equal(t, addrs[0], ev.Address)
}

func TestFailedMutationDoesNotAdvanceRecord(t *testing.T) {
	env := newTestEnv(t)
	stageAndCommit(t, env.ctrl, PendingGenerate, "")

	saves := env.store.saveCount()
	err := env.ctrl.SetCurrentAddress(InternalContext(),
		common.HexToAddress("0x000000000000000000000000000000000000dead"))
	require.ErrorIs(t, err, record.ErrUnknownAddress)
	require.Equal(t, saves, env.store.saveCount())
}

func TestRenameAndRemoveLifecycle(t *testing.T) {
	env := newTestEnv(t)
	addrs, groupID := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	addrs2, groupID2 := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase2)

	require.NoError(t, env.ctrl.RenameGroup(InternalContext(), groupID, "Savings"))
	require.NoError(t, env.ctrl.RenameAddress(InternalContext(), addrs[0], "cold"))

	groups, err := env.ctrl.Groups(InternalContext())
	require.NoError(t, err)
	require.Equal(t, "Savings", groups[0].Name)

	require.NoError(t, env.ctrl.AddPermission(InternalContext(), originApp, addrs[0]))

	// Removing the only address of the first group removes the group,
	// prunes the grant and moves the current address to the second group.
	require.NoError(t, env.ctrl.RemoveAddress(InternalContext(), addrs[0]))
	groups, err = env.ctrl.Groups(InternalContext())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, groupID2, groups[0].ID)

	perms, err := env.ctrl.Permissions(InternalContext())
	require.NoError(t, err)
	require.Empty(t, perms)

	cur, err := env.ctrl.CurrentAddress()
	require.NoError(t, err)
	require.Equal(t, addrs2[0], *cur)

	require.NoError(t, env.ctrl.RemoveGroup(InternalContext(), groupID2))
	cur, err = env.ctrl.CurrentAddress()
	require.NoError(t, err)
	require.Nil(t, cur)
}

func TestBackupConfirmation(t *testing.T) {
	env := newTestEnv(t)
	_, groupID := stageAndCommit(t, env.ctrl, PendingGenerate, "")
	stageAndCommit(t, env.ctrl, PendingImportPrivateKey, testKeyHex)

	n, err := env.ctrl.NoBackupCount(InternalContext())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, env.ctrl.ConfirmBackup(InternalContext(), groupID))
	n, err = env.ctrl.NoBackupCount(InternalContext())
	require.NoError(t, err)
	require.Zero(t, n)

	groups, err := env.ctrl.Groups(InternalContext())
	require.NoError(t, err)
	require.Equal(t, testStart, groups[0].LastBackedUp.UTC())
}

func TestPreferencesAndFlags(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.ctrl.SetPreferences(InternalContext(),
		map[string]interface{}{"theme": "dark"}))
	prefs, err := env.ctrl.Preferences(InternalContext())
	require.NoError(t, err)
	require.Equal(t, "dark", prefs["theme"])

	require.NoError(t, env.ctrl.SetWalletNameFlag(InternalContext(), "ens-first"))
	require.NoError(t, env.ctrl.RemoveWalletNameFlag(InternalContext(), "ens-first"))
}

func TestSessionRevealLifecycle(t *testing.T) {
	env := newTestEnv(t)
	addrs, groupID := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)

	// Load established the session, so reveal works immediately.
	phrase, err := env.ctrl.RevealRecoveryPhrase(InternalContext(), groupID)
	require.NoError(t, err)
	require.Equal(t, testPhrase, phrase)

	// After expiry the reveal fails until the credential is re-presented.
	env.clk.SetTime(testStart.Add(session.DefaultTimeout))
	_, err = env.ctrl.RevealRecoveryPhrase(InternalContext(), groupID)
	require.ErrorIs(t, err, session.ErrSessionExpired)
	_, err = env.ctrl.RevealPrivateKey(InternalContext(), addrs[0])
	require.ErrorIs(t, err, session.ErrSessionExpired)

	err = env.ctrl.EstablishSession(InternalContext(), []byte("wrong"))
	require.ErrorIs(t, err, ErrBadCredentials)
	_, err = env.ctrl.RevealRecoveryPhrase(InternalContext(), groupID)
	require.ErrorIs(t, err, session.ErrSessionExpired)

	require.NoError(t, env.ctrl.EstablishSession(InternalContext(), testPass))
	phrase, err = env.ctrl.RevealRecoveryPhrase(InternalContext(), groupID)
	require.NoError(t, err)
	require.Equal(t, testPhrase, phrase)

	require.NoError(t, env.ctrl.ClearSession(InternalContext()))
	_, err = env.ctrl.RevealRecoveryPhrase(InternalContext(), groupID)
	require.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestSendTransaction(t *testing.T) {
	env := newTestEnv(t)
	addrs, _ := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	from := addrs[0]
	to := common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")
	value := hexutil.Big(*big.NewInt(1_000_000_000_000_000_000))

	entry, err := env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{From: &from, To: &to, Value: &value})
	require.NoError(t, err)
	require.Equal(t, from, entry.From)
	require.Equal(t, to, *entry.To)
	require.Equal(t, "1000000000000000000", entry.Value)
	require.Equal(t, chainreg.DefaultChain, entry.Chain)
	require.Equal(t, "pending", entry.Status)
	require.Equal(t, testStart, entry.Time.UTC())

	// The backend filled nonce, gas and gas price; the broadcast tx is
	// signed by the current wallet's key.
	sent := env.backend.lastSent()
	require.NotNil(t, sent)
	require.Equal(t, uint64(7), sent.Nonce())
	require.Equal(t, uint64(21000), sent.Gas())
	require.Equal(t, big.NewInt(2_000_000_000), sent.GasPrice())
	require.Equal(t, entry.Hash, sent.Hash())

	signer := types.LatestSignerForChainID(big.NewInt(int64(chainreg.DefaultChain)))
	sender, err := types.Sender(signer, sent)
	require.NoError(t, err)
	require.Equal(t, from, sender)

	// The entry is in the log.
	txs, err := env.ctrl.Transactions(InternalContext())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, entry.Hash, txs[0].Hash)
}

func TestSendTransactionFromMismatch(t *testing.T) {
	env := newTestEnv(t)
	stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	other := common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")

	_, err := env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{From: &other})
	require.ErrorIs(t, err, ErrFromMismatch)
	_, err = env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{})
	require.ErrorIs(t, err, ErrFromMismatch)

	// Nothing was normalized or broadcast.
	require.Zero(t, env.backend.prepared)
	require.Nil(t, env.backend.lastSent())
}

func TestSendTransactionChainMismatch(t *testing.T) {
	env := newTestEnv(t)
	addrs, _ := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	from := addrs[0]
	require.NoError(t, env.ctrl.SetChainForOrigin(InternalContext(), chainreg.Polygon, originApp))

	// An explicit chainId that differs from the origin's selection fails
	// before any network call; there is no implicit switching.
	wrong := hexutil.Big(*big.NewInt(int64(chainreg.Mainnet)))
	_, err := env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{From: &from, ChainID: &wrong})
	require.ErrorIs(t, err, ErrChainMismatch)
	require.Zero(t, env.backend.prepared)

	// An absent chainId is filled from the origin's selection.
	entry, err := env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{From: &from})
	require.NoError(t, err)
	require.Equal(t, chainreg.Polygon, entry.Chain)
}

func TestSendTransactionOverflowingChainID(t *testing.T) {
	env := newTestEnv(t)
	addrs, _ := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	from := addrs[0]

	// 2^64+1 has 1 as its low 64 bits; truncating it would match the
	// default chain.  It must be treated as a mismatch instead.
	over := new(big.Int).Lsh(big.NewInt(1), 64)
	over.Add(over, big.NewInt(1))
	huge := hexutil.Big(*over)
	_, err := env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{From: &from, ChainID: &huge})
	require.ErrorIs(t, err, ErrChainMismatch)
	require.Zero(t, env.backend.prepared)
	require.Nil(t, env.backend.lastSent())
}

func TestSendTransactionWithoutCurrentAddress(t *testing.T) {
	env := newTestEnv(t)
	from := common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")
	_, err := env.ctrl.SendTransaction(context.Background(), InternalContext(),
		originApp, &chain.TxArgs{From: &from})
	require.ErrorIs(t, err, ErrNoCurrentAddress)
}

func TestSignPersonal(t *testing.T) {
	env := newTestEnv(t)
	addrs, _ := stageAndCommit(t, env.ctrl, PendingImportPrivateKey, testKeyHex)

	sig, err := env.ctrl.SignPersonal(InternalContext(), addrs[0],
		hexutil.Bytes("hello extension"))
	require.NoError(t, err)
	require.Len(t, []byte(sig), 65)
	// V is in the 27/28 form.
	require.GreaterOrEqual(t, sig[64], byte(27))

	// Deterministic for the same message and key.
	again, err := env.ctrl.SignPersonal(InternalContext(), addrs[0],
		hexutil.Bytes("hello extension"))
	require.NoError(t, err)
	require.Equal(t, sig, again)

	_, err = env.ctrl.SignPersonal(InternalContext(),
		common.HexToAddress("0x01"), hexutil.Bytes("hello"))
	require.ErrorIs(t, err, ErrFromMismatch)
}

func TestReloadFromStore(t *testing.T) {
	env := newTestEnv(t)
	addrs, groupID := stageAndCommit(t, env.ctrl, PendingImportMnemonic, testPhrase)
	require.NoError(t, env.ctrl.AddPermission(InternalContext(), originApp, addrs[0]))

	// A second controller over the same store sees the committed state.
	c2 := New(&Config{
		ID:       "primary",
		Store:    env.store,
		Registry: chainreg.NewStaticRegistry(),
		Backend:  &fakeBackend{},
		Clock:    env.clk,
	})
	require.NoError(t, c2.Load(context.Background(), testPass))

	groups, err := c2.Groups(InternalContext())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, groupID, groups[0].ID)
	require.True(t, c2.AllowedOrigin(OriginContext(originApp), addrs[0]))
}
