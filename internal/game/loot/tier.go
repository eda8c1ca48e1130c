// Package loot implements weighted case openings.
package loot

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
)

// RarityWeight is one row of a tier's weight table.
type RarityWeight struct {
	Rarity inventory.Rarity `yaml:"rarity" json:"rarity"`
	Weight float64          `yaml:"weight" json:"weight"`
}

// TierDef is the YAML shape of a case tier.
type TierDef struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	ImageRef string          `yaml:"image"`
	Price    decimal.Decimal `yaml:"price"`
	Weights  []RarityWeight  `yaml:"weights"`
}

// Tier is a purchasable case with a resolved item pool.
//
// Invariant: Weights are percentages in declared order; every rarity with a
// positive weight has a non-empty pool.
type Tier struct {
	ID       string                                 `json:"id"`
	Name     string                                 `json:"name"`
	ImageRef string                                 `json:"image"`
	Price    decimal.Decimal                        `json:"price"`
	Weights  []RarityWeight                         `json:"weights"`
	Pool     map[inventory.Rarity][]*inventory.Item `json:"-"`
	fallback *inventory.Item
}

// NewTier resolves def against catalog and normalizes its weights to
// percentages.
//
// Postcondition: returns a configuration error for an unknown rarity, a
// non-positive weight sum, or a weighted rarity with no items.
func NewTier(def TierDef, catalog *inventory.Catalog) (*Tier, error) {
	if def.ID == "" {
		return nil, gameerr.Configf("case tier id must not be empty")
	}
	if def.Price.IsNegative() {
		return nil, gameerr.Configf("case tier %q: price must not be negative", def.ID)
	}
	if len(def.Weights) == 0 {
		return nil, gameerr.Configf("case tier %q: no rarity weights", def.ID)
	}

	var sum float64
	seen := make(map[inventory.Rarity]bool)
	for _, w := range def.Weights {
		if _, err := inventory.ParseRarity(string(w.Rarity)); err != nil {
			return nil, fmt.Errorf("case tier %q: %w", def.ID, err)
		}
		if seen[w.Rarity] {
			return nil, gameerr.Configf("case tier %q: rarity %q listed twice", def.ID, w.Rarity)
		}
		seen[w.Rarity] = true
		if w.Weight < 0 {
			return nil, gameerr.Configf("case tier %q: negative weight for %q", def.ID, w.Rarity)
		}
		sum += w.Weight
	}
	if sum <= 0 {
		return nil, gameerr.Configf("case tier %q: weights sum to zero", def.ID)
	}

	t := &Tier{
		ID:       def.ID,
		Name:     def.Name,
		ImageRef: def.ImageRef,
		Price:    def.Price,
		Pool:     make(map[inventory.Rarity][]*inventory.Item),
	}
	for _, w := range def.Weights {
		pool := catalog.ByRarity(w.Rarity)
		if w.Weight > 0 && len(pool) == 0 {
			return nil, gameerr.Configf("case tier %q: no items of rarity %q", def.ID, w.Rarity)
		}
		t.Pool[w.Rarity] = pool
		t.Weights = append(t.Weights, RarityWeight{Rarity: w.Rarity, Weight: w.Weight * 100 / sum})
	}
	t.fallback = t.firstDeclaredItem()
	if t.fallback == nil {
		return nil, gameerr.Configf("case tier %q: empty item pool", def.ID)
	}
	return t, nil
}

// firstDeclaredItem returns the first item of the earliest declared rarity
// with a non-empty pool.
func (t *Tier) firstDeclaredItem() *inventory.Item {
	for _, w := range t.Weights {
		if items := t.Pool[w.Rarity]; len(items) > 0 {
			return items[0]
		}
	}
	return nil
}

// Fallback returns the item awarded when a roll matches no rarity.
func (t *Tier) Fallback() *inventory.Item { return t.fallback }

// Set is the collection of case tiers in display order.
type Set struct {
	tiers map[string]*Tier
	order []*Tier
}

// NewSet builds a Set from tiers.
//
// Postcondition: returns a configuration error on duplicate ids.
func NewSet(tiers ...*Tier) (*Set, error) {
	s := &Set{tiers: make(map[string]*Tier)}
	for _, t := range tiers {
		if _, exists := s.tiers[t.ID]; exists {
			return nil, gameerr.Configf("case tier %q already registered", t.ID)
		}
		s.tiers[t.ID] = t
		s.order = append(s.order, t)
	}
	return s, nil
}

// Tier returns the tier with id.
//
// Postcondition: returns gameerr.ErrUnknownTier when id is not registered.
func (s *Set) Tier(id string) (*Tier, error) {
	t, ok := s.tiers[id]
	if !ok {
		return nil, gameerr.Validationf(gameerr.ErrUnknownTier, "%q", id)
	}
	return t, nil
}

// All returns the tiers in display order.
func (s *Set) All() []*Tier {
	return append([]*Tier(nil), s.order...)
}

type tierFile struct {
	Cases []TierDef `yaml:"cases"`
}

// LoadTiers parses the YAML file at path and resolves every tier against
// catalog.
func LoadTiers(path string, catalog *inventory.Catalog) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTiers: cannot read file %q: %w", path, err)
	}
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("LoadTiers: cannot parse file %q: %w", path, err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("LoadTiers: %q: %w", path, gameerr.Configf("no case tiers defined"))
	}
	tiers := make([]*Tier, 0, len(f.Cases))
	for _, def := range f.Cases {
		t, err := NewTier(def, catalog)
		if err != nil {
			return nil, fmt.Errorf("LoadTiers: %q: %w", path, err)
		}
		tiers = append(tiers, t)
	}
	return NewSet(tiers...)
}
