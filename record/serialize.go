package record

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/container"
)

// The serialized record is a versionless JSON document.  It carries plain
// container snapshots and therefore raw key material; the only legal sink
// for the marshaled bytes is the encrypted persistence boundary.

type groupJSON struct {
	ID           string             `json:"id"`
	Container    container.Snapshot `json:"walletContainer"`
	Origin       Provenance         `json:"origin"`
	LastBackedUp *time.Time         `json:"lastBackedUp,omitempty"`
	Name         string             `json:"name"`
}

type permissionJSON struct {
	Addresses []string       `json:"addresses"`
	Chain     chainreg.Chain `json:"chain,omitempty"`
}

type recordJSON struct {
	Groups          []groupJSON               `json:"groups"`
	Permissions     map[string]permissionJSON `json:"permissions"`
	CurrentAddress  string                    `json:"currentAddress,omitempty"`
	Preferences     map[string]interface{}    `json:"preferences"`
	WalletNameFlags []string                  `json:"walletNameFlags"`
	Transactions    []TxEntry                 `json:"transactions"`
}

// Marshal serializes the record for the persistence boundary.
func Marshal(r *Record) ([]byte, error) {
	doc := recordJSON{
		Groups:          make([]groupJSON, 0, len(r.Groups)),
		Permissions:     make(map[string]permissionJSON, len(r.Permissions)),
		Preferences:     r.Preferences,
		WalletNameFlags: make([]string, 0, len(r.WalletNameFlags)),
		Transactions:    r.Transactions,
	}
	for _, g := range r.Groups {
		doc.Groups = append(doc.Groups, groupJSON{
			ID:           g.ID,
			Container:    g.Container.Snapshot(),
			Origin:       g.Origin,
			LastBackedUp: g.LastBackedUp,
			Name:         g.Name,
		})
	}
	for origin, p := range r.Permissions {
		pj := permissionJSON{Chain: p.Chain}
		for _, a := range p.Addresses {
			pj.Addresses = append(pj.Addresses, a.Hex())
		}
		doc.Permissions[origin] = pj
	}
	if r.CurrentAddress != nil {
		doc.CurrentAddress = r.CurrentAddress.Hex()
	}
	for flag := range r.WalletNameFlags {
		doc.WalletNameFlags = append(doc.WalletNameFlags, flag)
	}
	sort.Strings(doc.WalletNameFlags)
	return json.Marshal(doc)
}

// Unmarshal rebuilds a record from its serialized form.
func Unmarshal(data []byte) (*Record, error) {
	var doc recordJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	r := New()
	if doc.Preferences != nil {
		r.Preferences = doc.Preferences
	}
	for _, gj := range doc.Groups {
		c, err := container.FromSnapshot(gj.Container)
		if err != nil {
			return nil, err
		}
		r.Groups = append(r.Groups, &Group{
			ID:           gj.ID,
			Container:    c,
			Origin:       gj.Origin,
			LastBackedUp: gj.LastBackedUp,
			Name:         gj.Name,
		})
	}
	for origin, pj := range doc.Permissions {
		p := &Permission{Chain: pj.Chain}
		for _, a := range pj.Addresses {
			p.Addresses = append(p.Addresses, common.HexToAddress(a))
		}
		r.Permissions[origin] = p
	}
	if doc.CurrentAddress != "" {
		a := common.HexToAddress(doc.CurrentAddress)
		r.CurrentAddress = &a
	}
	for _, flag := range doc.WalletNameFlags {
		r.WalletNameFlags[flag] = struct{}{}
	}
	r.Transactions = doc.Transactions
	return r, nil
}
