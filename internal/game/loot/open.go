package loot

import (
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/rng"
)

// Drop is one unit opened from a case.
type Drop struct {
	Item   *inventory.Item  `json:"item"`
	Rarity inventory.Rarity `json:"rarity"`
	// Roll is the rarity draw scaled to [0, 100).
	Roll float64 `json:"roll"`
	// Fallback is set when Roll matched no rarity and Tier.Fallback was awarded.
	Fallback bool `json:"fallback,omitempty"`
}

// Draw opens a single unit of t.
//
// The rarity roll r is drawn in [0, 100) and the weight table is walked in
// declared order; the first rarity whose cumulative weight reaches r wins and
// a second draw picks uniformly from its pool. Rarities with zero weight are
// never selected. When rounding leaves r past the last boundary the tier's
// Fallback item is returned with Fallback set.
//
// Postcondition: the returned Drop always carries an item.
func (t *Tier) Draw(src rng.Source) Drop {
	r := rng.Percent(src)
	var cumulative float64
	for _, w := range t.Weights {
		if w.Weight <= 0 {
			continue
		}
		cumulative += w.Weight
		if r <= cumulative {
			pool := t.Pool[w.Rarity]
			return Drop{Item: pool[rng.Intn(src, len(pool))], Rarity: w.Rarity, Roll: r}
		}
	}
	return Drop{Item: t.fallback, Rarity: t.fallback.Rarity, Roll: r, Fallback: true}
}

// Open opens quantity units of t. It has no side effects beyond consuming
// src; the caller debits Price × quantity beforehand and awards the items.
//
// Precondition: quantity >= 1.
// Postcondition: len(result) == quantity.
func Open(t *Tier, quantity int, src rng.Source) ([]Drop, error) {
	if quantity < 1 {
		return nil, gameerr.Validationf(gameerr.ErrValidation, "case quantity must be >= 1, got %d", quantity)
	}
	drops := make([]Drop, quantity)
	for i := range drops {
		drops[i] = t.Draw(src)
	}
	return drops, nil
}
