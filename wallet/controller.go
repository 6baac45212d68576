// Package wallet implements the controller that owns one wallet record: it
// mediates every request that would expose key material or produce a
// signature, persists the record encrypted after each mutation, and
// publishes typed events for the UI layer to drain.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/extwallet/extwallet/chain"
	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/container"
	"github.com/extwallet/extwallet/internal/zero"
	"github.com/extwallet/extwallet/record"
	"github.com/extwallet/extwallet/session"
	"github.com/extwallet/extwallet/storage"
	"github.com/extwallet/extwallet/vault"
)

// Config holds the explicit dependencies of a controller.  Nothing here is
// ambient: every collaborator is handed in so the core runs without a
// browser-like environment.
type Config struct {
	// ID is the wallet id this controller exclusively owns.
	ID string

	// Store is the encrypted persistence gateway.
	Store storage.Gateway

	// Registry resolves chains to wire ids and RPC endpoints.
	Registry chainreg.Registry

	// Backend supplies the chain-facing pipeline collaborators.
	Backend chain.Backend

	// Clock drives the session-key expiry; nil means the wall clock.
	Clock clock.Clock
}

// Controller is the sole writer of its in-memory record.  Mutations are
// serialized by a per-controller mutex held across the compute→persist→swap
// sequence, so concurrent callers can never apply updates from stale reads.
type Controller struct {
	id       string
	store    storage.Gateway
	registry chainreg.Registry
	backend  chain.Backend
	session  *session.Manager
	clk      clock.Clock

	mtx     sync.Mutex
	rec     *record.Record
	pending *record.PendingWallet
	cred    []byte

	feed event.Feed
}

// New builds a controller from its dependencies.  The record is not read
// until Load is called with the storage credential.
func New(cfg *Config) *Controller {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Controller{
		id:       cfg.ID,
		store:    cfg.Store,
		registry: cfg.Registry,
		backend:  cfg.Backend,
		session:  session.NewManager(clk),
		clk:      clk,
	}
}

// Session exposes the session-key lifecycle, mainly for tests.
func (c *Controller) Session() *session.Manager {
	return c.session
}

// Load reads (or, for a fresh wallet id, creates) the record using the
// given storage credential, and establishes the session key since UI
// credentials were just presented.  A decryption failure is surfaced as
// ErrBadCredentials.
func (c *Controller) Load(ctx context.Context, passphrase []byte) error {
	if err := c.store.Ready(ctx); err != nil {
		return err
	}

	rec, err := c.store.Read(c.id, passphrase)
	switch {
	case errors.Is(err, storage.ErrRecordNotFound):
		rec = record.New()
		if err := c.store.Save(c.id, passphrase, rec); err != nil {
			return err
		}
	case errors.Is(err, vault.ErrBadPassphrase):
		return fmt.Errorf("%w: %v", ErrBadCredentials, err)
	case err != nil:
		return err
	}

	c.mtx.Lock()
	if c.cred != nil {
		zero.Bytes(c.cred)
	}
	c.cred = append([]byte(nil), passphrase...)
	c.rec = rec
	c.mtx.Unlock()

	c.session.Set(passphrase)
	log.Infof("loaded wallet record %s (%d groups)", c.id, len(rec.Groups))
	return nil
}

// snapshot returns the current record value.  Records are immutable, so the
// returned value is safe to read without holding the lock.
func (c *Controller) snapshot() (*record.Record, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.rec == nil {
		return nil, ErrRecordNotFound
	}
	return c.rec, nil
}

// mutate runs fn over the current record, persists the result, and swaps it
// in.  The in-memory record only advances after a successful write, so a
// failed write never leaves memory and disk diverged.
func (c *Controller) mutate(fn func(*record.Record) (*record.Record, error)) (*record.Record, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.rec == nil {
		return nil, ErrRecordNotFound
	}
	nr, err := fn(c.rec)
	if err != nil {
		return nil, err
	}
	if nr == c.rec {
		// No-op update: nothing to persist, nothing to publish.
		return nr, nil
	}
	if err := c.store.Save(c.id, c.cred, nr); err != nil {
		return nil, err
	}
	c.rec = nr
	return nr, nil
}

// AllowedOrigin decides, per (origin, address), whether access is granted.
// The internal sentinel authorizes every address; any other origin only the
// addresses listed for it in the permission map.
func (c *Controller) AllowedOrigin(ctx Context, addr common.Address) bool {
	if ctx.Internal {
		return true
	}
	rec, err := c.snapshot()
	if err != nil {
		return false
	}
	return rec.HasPermission(ctx.Origin, addr)
}

// CurrentAddress returns the record's current address, or nil.
func (c *Controller) CurrentAddress() (*common.Address, error) {
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return rec.CurrentAddress, nil
}

// Accounts returns the addresses visible to the caller: the current address
// when the origin is permitted for it (always, for the internal sentinel),
// and an empty list otherwise.
func (c *Controller) Accounts(ctx Context) ([]common.Address, error) {
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	if rec.CurrentAddress == nil {
		return []common.Address{}, nil
	}
	if !c.AllowedOrigin(ctx, *rec.CurrentAddress) {
		return []common.Address{}, nil
	}
	return []common.Address{*rec.CurrentAddress}, nil
}

// PendingKind selects what StagePendingWallet stages.
type PendingKind int

// Pending wallet kinds.
const (
	// PendingGenerate stages a freshly generated mnemonic wallet.
	PendingGenerate PendingKind = iota

	// PendingImportMnemonic stages a wallet derived from an imported
	// recovery phrase.
	PendingImportMnemonic

	// PendingImportPrivateKey stages a single imported private key.
	PendingImportPrivateKey
)

// StagePendingWallet stages a container awaiting explicit commit.  The
// staged container lives only in memory; it is discarded if never committed.
// Internal-only.
func (c *Controller) StagePendingWallet(ctx Context, kind PendingKind, secret string) ([]common.Address, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}

	var (
		cont *container.Container
		prov record.Provenance
		err  error
	)
	switch kind {
	case PendingGenerate:
		var w *container.BareWallet
		w, err = container.Generate("")
		if err == nil {
			cont, err = container.NewMnemonicContainer(w)
		}
		prov = record.OriginGenerated

	case PendingImportMnemonic:
		var w *container.BareWallet
		w, err = container.Restore(container.Partial{
			Mnemonic: &container.Mnemonic{Phrase: secret},
		})
		if err == nil {
			cont, err = container.NewMnemonicContainer(w)
		}
		prov = record.OriginImported

	case PendingImportPrivateKey:
		var w *container.BareWallet
		w, err = container.Restore(container.Partial{PrivateKeyHex: secret})
		if err == nil {
			cont, err = container.NewPrivateKeyContainer(w)
		}
		prov = record.OriginImported

	default:
		return nil, fmt.Errorf("unknown pending kind %d", kind)
	}
	if err != nil {
		return nil, err
	}

	c.mtx.Lock()
	c.pending = &record.PendingWallet{Container: cont, Origin: prov}
	c.mtx.Unlock()

	addrs := make([]common.Address, 0, cont.Len())
	for _, w := range cont.Wallets() {
		addrs = append(addrs, w.Address)
	}
	return addrs, nil
}

// SavePendingWallet commits the staged container into the record.
// Internal-only.
func (c *Controller) SavePendingWallet(ctx Context) (string, error) {
	if !ctx.Internal {
		return "", ErrOriginNotAllowed
	}

	c.mtx.Lock()
	pending := c.pending
	c.mtx.Unlock()
	if pending == nil {
		return "", ErrNoPendingWallet
	}

	var committed *record.Group
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		nr, g, err := record.CreateOrUpdate(r, pending)
		committed = g
		return nr, err
	})
	if err != nil {
		return "", err
	}

	c.mtx.Lock()
	c.pending = nil
	c.mtx.Unlock()

	c.publish(Event{Kind: RecordUpdated})
	return committed.ID, nil
}

// DiscardPendingWallet drops any staged container.  Internal-only.
func (c *Controller) DiscardPendingWallet(ctx Context) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	c.mtx.Lock()
	c.pending = nil
	c.mtx.Unlock()
	return nil
}

// AddPermission grants origin access to addr.  Internal-only.
func (c *Controller) AddPermission(ctx Context, origin string, addr common.Address) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.AddPermission(r, origin, addr)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: PermissionsUpdated, Origin: origin, Address: addr})
	return nil
}

// RemovePermission revokes origin's access to addr.  Internal-only.
func (c *Controller) RemovePermission(ctx Context, origin string, addr common.Address) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RemovePermission(r, origin, addr), nil
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: PermissionsUpdated, Origin: origin, Address: addr})
	return nil
}

// RemoveAllOriginPermissions drops origin's entry entirely.  Internal-only.
func (c *Controller) RemoveAllOriginPermissions(ctx Context, origin string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RemoveAllOriginPermissions(r, origin), nil
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: PermissionsUpdated, Origin: origin})
	return nil
}

// Permissions returns origin → granted addresses.  Internal-only.
func (c *Controller) Permissions(ctx Context) (map[string][]common.Address, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]common.Address, len(rec.Permissions))
	for origin := range rec.Permissions {
		out[origin] = rec.PermittedAddresses(origin)
	}
	return out, nil
}

// SetCurrentAddress makes addr the current address.  Internal-only.
func (c *Controller) SetCurrentAddress(ctx Context, addr common.Address) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.SetCurrentAddress(r, addr)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: CurrentAddressChanged, Address: addr})
	return nil
}

// SetChainForOrigin records origin's selected chain and publishes a
// chain-change notification.  Internal-only; the public
// wallet_switchEthereumChain path wraps this behind its permission check.
func (c *Controller) SetChainForOrigin(ctx Context, ch chainreg.Chain, origin string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.SetChainForOrigin(r, ch, origin), nil
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: ChainChanged, Origin: origin, Chain: ch})
	return nil
}

// ChainForOrigin returns origin's selected chain (default when unset).
// Internal-only; web origins resolve chains through ChainIDForOrigin.
func (c *Controller) ChainForOrigin(ctx Context, origin string) (chainreg.Chain, error) {
	if !ctx.Internal {
		return 0, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return 0, err
	}
	return record.ChainForOrigin(rec, origin), nil
}

// ChainIDForOrigin resolves origin's chain into its wire-format id through
// the network registry.  Deliberately requires no permission: origins can
// learn the chain before being granted any address.
func (c *Controller) ChainIDForOrigin(origin string) (string, error) {
	rec, err := c.snapshot()
	if err != nil {
		return "", err
	}
	return c.registry.ChainID(record.ChainForOrigin(rec, origin))
}

// ResolveChain resolves a wire-format chain id through the network
// registry.
func (c *Controller) ResolveChain(wireID string) (chainreg.Chain, error) {
	return c.registry.ChainByID(wireID)
}

// RenameGroup renames a wallet group.  Internal-only.
func (c *Controller) RenameGroup(ctx Context, groupID, name string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RenameGroup(r, groupID, name)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// RenameAddress renames a single wallet.  Internal-only.
func (c *Controller) RenameAddress(ctx Context, addr common.Address, name string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RenameAddress(r, addr, name)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// RemoveAddress removes one wallet (and its group, when it was the last
// address).  Internal-only.
func (c *Controller) RemoveAddress(ctx Context, addr common.Address) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RemoveAddress(r, addr)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// RemoveGroup removes a whole wallet group.  Internal-only.
func (c *Controller) RemoveGroup(ctx Context, groupID string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RemoveGroup(r, groupID)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// SetPreferences merges a patch into the preferences bag.  Internal-only.
func (c *Controller) SetPreferences(ctx Context, patch map[string]interface{}) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.SetPreferences(r, patch), nil
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// Preferences returns a copy of the preferences bag.  Internal-only.
func (c *Controller) Preferences(ctx Context) (map[string]interface{}, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return record.Preferences(rec), nil
}

// SetWalletNameFlag adds a wallet-name flag.  Internal-only.
func (c *Controller) SetWalletNameFlag(ctx Context, flag string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.SetWalletNameFlag(r, flag), nil
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// RemoveWalletNameFlag removes a wallet-name flag.  Internal-only.
func (c *Controller) RemoveWalletNameFlag(ctx Context, flag string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.RemoveWalletNameFlag(r, flag), nil
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// ConfirmBackup records an explicit backup confirmation for a group.
// Internal-only.
func (c *Controller) ConfirmBackup(ctx Context, groupID string) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	now := c.clk.Now()
	_, err := c.mutate(func(r *record.Record) (*record.Record, error) {
		return record.UpdateLastBackedUp(r, groupID, now)
	})
	if err != nil {
		return err
	}
	c.publish(Event{Kind: RecordUpdated})
	return nil
}

// NoBackupCount counts mnemonic groups never marked backed up.
// Internal-only.
func (c *Controller) NoBackupCount(ctx Context) (int, error) {
	if !ctx.Internal {
		return 0, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return 0, err
	}
	return record.NoBackupCount(rec), nil
}

// EstablishSession validates the credential against the stored blob and
// (re)arms the session key.  Internal-only.
func (c *Controller) EstablishSession(ctx Context, passphrase []byte) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	if err := c.store.Check(c.id, passphrase); err != nil {
		if errors.Is(err, vault.ErrBadPassphrase) {
			return fmt.Errorf("%w: %v", ErrBadCredentials, err)
		}
		return err
	}
	c.session.Set(passphrase)
	return nil
}

// ClearSession drops the session key.  Internal-only.
func (c *Controller) ClearSession(ctx Context) error {
	if !ctx.Internal {
		return ErrOriginNotAllowed
	}
	c.session.Clear()
	return nil
}

// RevealRecoveryPhrase exports a group's recovery phrase.  Internal-only,
// and gated on a currently valid session key.
func (c *Controller) RevealRecoveryPhrase(ctx Context, groupID string) (string, error) {
	if !ctx.Internal {
		return "", ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return "", err
	}
	return record.RecoveryPhrase(rec, groupID, c.session)
}

// RevealPrivateKey exports one wallet's private key.  Internal-only, and
// gated on a currently valid session key.
func (c *Controller) RevealPrivateKey(ctx Context, addr common.Address) (string, error) {
	if !ctx.Internal {
		return "", ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return "", err
	}
	return record.PrivateKey(rec, addr, c.session)
}

// Groups returns a UI-facing summary of the wallet groups.  Internal-only.
func (c *Controller) Groups(ctx Context) ([]GroupSummary, error) {
	if !ctx.Internal {
		return nil, ErrOriginNotAllowed
	}
	rec, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]GroupSummary, 0, len(rec.Groups))
	for _, g := range rec.Groups {
		s := GroupSummary{
			ID:           g.ID,
			Name:         g.Name,
			SeedType:     g.Container.SeedType().String(),
			Origin:       string(g.Origin),
			LastBackedUp: g.LastBackedUp,
		}
		for _, w := range g.Container.Wallets() {
			s.Addresses = append(s.Addresses, w.Address)
		}
		out = append(out, s)
	}
	return out, nil
}

// GroupSummary is the secret-free view of a wallet group handed to the UI.
type GroupSummary struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	SeedType     string           `json:"seedType"`
	Origin       string           `json:"origin"`
	LastBackedUp *time.Time       `json:"lastBackedUp,omitempty"`
	Addresses    []common.Address `json:"addresses"`
}
