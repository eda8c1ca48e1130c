package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// ErrEntryNotFound is returned when an instance id is not owned.
var ErrEntryNotFound = gameerr.Validationf(gameerr.ErrUnknownItem, "inventory entry not found")

// Entry is an owned copy of a catalog item.
type Entry struct {
	InstanceID string    `json:"instance_id"`
	Item       Item      `json:"item"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Inventory is the player's collection of owned items, oldest first.
//
// Invariant: instance ids are unique.
// Not safe for concurrent use; the owning session serializes access.
type Inventory struct {
	entries []Entry
}

// New returns an empty Inventory.
func New() *Inventory {
	return &Inventory{}
}

// FromEntries rebuilds an inventory from saved entries.
func FromEntries(entries []Entry) *Inventory {
	return &Inventory{entries: append([]Entry(nil), entries...)}
}

// Add awards a fresh copy of it acquired at at.
//
// Postcondition: the returned entry carries a new unique instance id.
func (inv *Inventory) Add(it *Item, at time.Time) Entry {
	e := Entry{
		InstanceID: uuid.New().String(),
		Item:       *it,
		AcquiredAt: at,
	}
	inv.entries = append(inv.entries, e)
	return e
}

// Get returns the entry with instanceID.
func (inv *Inventory) Get(instanceID string) (Entry, bool) {
	for _, e := range inv.entries {
		if e.InstanceID == instanceID {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove deletes and returns the entry with instanceID.
//
// Postcondition: on error the inventory is unchanged.
func (inv *Inventory) Remove(instanceID string) (Entry, error) {
	for i, e := range inv.entries {
		if e.InstanceID == instanceID {
			inv.entries = append(inv.entries[:i], inv.entries[i+1:]...)
			return e, nil
		}
	}
	return Entry{}, gameerr.Validationf(ErrEntryNotFound, "%q", instanceID)
}

// Entries returns a copy of the owned entries, oldest first.
func (inv *Inventory) Entries() []Entry {
	return append([]Entry(nil), inv.entries...)
}

// Len returns the number of owned entries.
func (inv *Inventory) Len() int { return len(inv.entries) }

// TotalValue sums the value of every owned item.
func (inv *Inventory) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, e := range inv.entries {
		total = total.Add(e.Item.Value)
	}
	return total
}
