package record

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/container"
)

// CreateOrUpdate commits a pending container into the record.  A mnemonic
// container whose recovery phrase matches an existing group replaces that
// group's container (the group keeps its id, name and backup mark); a
// private-key container whose address is already owned does the same.
// Anything else becomes a new group.
func CreateOrUpdate(r *Record, pending *PendingWallet) (*Record, *Group, error) {
	if pending == nil || pending.Container == nil {
		return nil, nil, fmt.Errorf("no pending wallet to commit")
	}

	nr := r.Clone()
	if g := matchingGroup(nr, pending.Container); g != nil {
		g.Container = pending.Container.Clone()
		return nr, g, nil
	}

	g := &Group{
		ID:        uuid.NewString(),
		Container: pending.Container.Clone(),
		Origin:    pending.Origin,
		Name:      fmt.Sprintf("Wallet Group #%d", len(nr.Groups)+1),
	}
	nr.Groups = append(nr.Groups, g)
	if nr.CurrentAddress == nil {
		a := g.Container.FirstWallet().Address
		nr.CurrentAddress = &a
	}
	return nr, g, nil
}

// matchingGroup finds the existing group a pending container updates, if
// any: same recovery phrase for mnemonic containers, same (single) address
// for private-key containers.
func matchingGroup(r *Record, c *container.Container) *Group {
	switch c.SeedType() {
	case container.SeedMnemonic:
		for _, g := range r.Groups {
			if g.Container.SeedType() == container.SeedMnemonic &&
				g.Container.Mnemonic() == c.Mnemonic() {
				return g
			}
		}
	case container.SeedPrivateKey:
		addr := c.FirstWallet().Address
		for _, g := range r.Groups {
			if g.Container.SeedType() == container.SeedPrivateKey &&
				g.Container.FirstWallet().Address == addr {
				return g
			}
		}
	}
	return nil
}

// AddPermission grants the origin access to the address.  The address must
// be owned by some group.  A fresh origin entry carries no chain selection
// and resolves to the default chain until one is made.
func AddPermission(r *Record, origin string, addr common.Address) (*Record, error) {
	if !r.OwnsAddress(addr) {
		return nil, ErrUnknownAddress
	}
	if r.HasPermission(origin, addr) {
		return r, nil
	}

	nr := r.Clone()
	p, ok := nr.Permissions[origin]
	if !ok {
		p = &Permission{}
		nr.Permissions[origin] = p
	}
	p.Addresses = append(p.Addresses, addr)
	return nr, nil
}

// RemovePermission revokes the origin's access to the address.  An origin
// left with no addresses is removed from the permission map entirely.
func RemovePermission(r *Record, origin string, addr common.Address) *Record {
	p, ok := r.Permissions[origin]
	if !ok {
		return r
	}

	nr := r.Clone()
	np := nr.Permissions[origin]
	np.Addresses = np.Addresses[:0]
	for _, a := range p.Addresses {
		if a != addr {
			np.Addresses = append(np.Addresses, a)
		}
	}
	if len(np.Addresses) == 0 {
		delete(nr.Permissions, origin)
	}
	return nr
}

// RemoveAllOriginPermissions removes the origin's entry entirely, dropping
// both its address grants and its chain selection.
func RemoveAllOriginPermissions(r *Record, origin string) *Record {
	if _, ok := r.Permissions[origin]; !ok {
		return r
	}
	nr := r.Clone()
	delete(nr.Permissions, origin)
	return nr
}

// SetCurrentAddress makes addr the record's current address.  The address
// must be owned by some group.
func SetCurrentAddress(r *Record, addr common.Address) (*Record, error) {
	if !r.OwnsAddress(addr) {
		return nil, ErrUnknownAddress
	}
	nr := r.Clone()
	nr.CurrentAddress = &addr
	return nr, nil
}

// SetChainForOrigin records the origin's selected chain.
func SetChainForOrigin(r *Record, chain chainreg.Chain, origin string) *Record {
	nr := r.Clone()
	p, ok := nr.Permissions[origin]
	if !ok {
		p = &Permission{}
		nr.Permissions[origin] = p
	}
	p.Chain = chain
	return nr
}

// RenameGroup sets the user-visible name of a group.
func RenameGroup(r *Record, groupID, name string) (*Record, error) {
	if r.GroupByID(groupID) == nil {
		return nil, ErrUnknownGroup
	}
	nr := r.Clone()
	nr.GroupByID(groupID).Name = name
	return nr, nil
}

// RenameAddress sets the user-visible name of a single wallet.
func RenameAddress(r *Record, addr common.Address, name string) (*Record, error) {
	if !r.OwnsAddress(addr) {
		return nil, ErrUnknownAddress
	}
	nr := r.Clone()
	nr.WalletByAddress(addr.Hex()).Name = name
	return nr, nil
}

// RemoveAddress removes a single wallet from whichever group owns it.
// Removing the last address of a group removes the group.  Permission
// entries referencing the address are pruned in the same update, and the
// current address is moved to another owned wallet (or cleared) when it was
// the one removed.
func RemoveAddress(r *Record, addr common.Address) (*Record, error) {
	if !r.OwnsAddress(addr) {
		return nil, ErrUnknownAddress
	}

	nr := r.Clone()
	for i, g := range nr.Groups {
		if g.Container.WalletByAddress(addr.Hex()) == nil {
			continue
		}
		if g.Container.Len() == 1 {
			nr.Groups = append(nr.Groups[:i], nr.Groups[i+1:]...)
		} else {
			g.Container.RemoveWallet(addr.Hex())
		}
		break
	}
	prune(nr)
	return nr, nil
}

// RemoveGroup removes a whole group, pruning permissions for every address
// it owned.
func RemoveGroup(r *Record, groupID string) (*Record, error) {
	if r.GroupByID(groupID) == nil {
		return nil, ErrUnknownGroup
	}

	nr := r.Clone()
	for i, g := range nr.Groups {
		if g.ID == groupID {
			nr.Groups = append(nr.Groups[:i], nr.Groups[i+1:]...)
			break
		}
	}
	prune(nr)
	return nr, nil
}

// prune drops permission entries for addresses no longer owned by any
// group, removes origins left without addresses, and repairs the current
// address after removals.  An origin holding only a chain selection is
// kept; removing an unrelated address must not reset which chain the
// origin sees.
func prune(r *Record) {
	for origin, p := range r.Permissions {
		kept := p.Addresses[:0]
		for _, a := range p.Addresses {
			if r.OwnsAddress(a) {
				kept = append(kept, a)
			}
		}
		p.Addresses = kept
		if len(p.Addresses) == 0 && p.Chain == 0 {
			delete(r.Permissions, origin)
		}
	}
	if r.CurrentAddress != nil && !r.OwnsAddress(*r.CurrentAddress) {
		r.CurrentAddress = nil
		if len(r.Groups) > 0 {
			a := r.Groups[0].Container.FirstWallet().Address
			r.CurrentAddress = &a
		}
	}
}

// SetPreferences merges the patch into the preferences bag.
func SetPreferences(r *Record, patch map[string]interface{}) *Record {
	nr := r.Clone()
	for k, v := range patch {
		nr.Preferences[k] = v
	}
	return nr
}

// Preferences returns a copy of the preferences bag.
func Preferences(r *Record) map[string]interface{} {
	out := make(map[string]interface{}, len(r.Preferences))
	for k, v := range r.Preferences {
		out[k] = v
	}
	return out
}

// SetWalletNameFlag adds a flag to the wallet-name flag set.
func SetWalletNameFlag(r *Record, flag string) *Record {
	if _, ok := r.WalletNameFlags[flag]; ok {
		return r
	}
	nr := r.Clone()
	nr.WalletNameFlags[flag] = struct{}{}
	return nr
}

// RemoveWalletNameFlag removes a flag from the wallet-name flag set.
func RemoveWalletNameFlag(r *Record, flag string) *Record {
	if _, ok := r.WalletNameFlags[flag]; !ok {
		return r
	}
	nr := r.Clone()
	delete(nr.WalletNameFlags, flag)
	return nr
}

// UpdateLastBackedUp records an explicit "confirm backup" action for a
// group.  Nothing ever clears the mark automatically.
func UpdateLastBackedUp(r *Record, groupID string, t time.Time) (*Record, error) {
	if r.GroupByID(groupID) == nil {
		return nil, ErrUnknownGroup
	}
	nr := r.Clone()
	nr.GroupByID(groupID).LastBackedUp = &t
	return nr, nil
}

// AppendTransaction appends a sanitized entry to the transaction log.
func AppendTransaction(r *Record, e TxEntry) *Record {
	nr := r.Clone()
	nr.Transactions = append(nr.Transactions, e)
	return nr
}
