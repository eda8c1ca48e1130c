package inventory

import (
	"sort"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// Catalog holds every item definition indexed by id and by rarity.
//
// Invariant: read-only once built; safe for concurrent readers.
type Catalog struct {
	items    map[string]*Item
	byRarity map[Rarity][]*Item
	order    []*Item
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		items:    make(map[string]*Item),
		byRarity: make(map[Rarity][]*Item),
	}
}

// BuildCatalog registers items in order.
//
// Postcondition: returns a configuration error on an invalid or duplicate item.
func BuildCatalog(items []*Item) (*Catalog, error) {
	c := NewCatalog()
	for _, it := range items {
		if err := c.Register(it); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds it to the catalog.
//
// Precondition: it must not be nil.
// Postcondition: Item(it.ID) returns (it, true); returns error if it.ID already registered.
func (c *Catalog) Register(it *Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if _, exists := c.items[it.ID]; exists {
		return gameerr.Configf("item id %q already registered", it.ID)
	}
	c.items[it.ID] = it
	c.byRarity[it.Rarity] = append(c.byRarity[it.Rarity], it)
	c.order = append(c.order, it)
	return nil
}

// Item returns the item for id and whether it was found.
func (c *Catalog) Item(id string) (*Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// ByRarity returns the items of rarity r in registration order.
func (c *Catalog) ByRarity(r Rarity) []*Item {
	return c.byRarity[r]
}

// All returns every item sorted by ascending value, ties by id.
func (c *Catalog) All() []*Item {
	out := append([]*Item(nil), c.order...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value.Equal(out[j].Value) {
			return out[i].ID < out[j].ID
		}
		return out[i].Value.LessThan(out[j].Value)
	})
	return out
}

// Len returns the number of registered items.
func (c *Catalog) Len() int { return len(c.items) }
