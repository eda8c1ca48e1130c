// Package upgrade computes item-to-item upgrade odds and rolls attempts.
package upgrade

import (
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/rng"
)

// DefaultMaxChance is the stock success ceiling in percent.
const DefaultMaxChance = 95.0

// ComputeChance returns the success chance in percent for trading an item
// worth source for one worth target.
//
// A target worth no more than the source is capped at maxChance; otherwise
// the chance scales with source/target.
//
// Precondition: source > 0, target > 0, 0 < maxChance <= 100.
// Postcondition: 0 <= result <= maxChance.
func ComputeChance(source, target decimal.Decimal, maxChance float64) float64 {
	if !target.GreaterThan(source) {
		return maxChance
	}
	ratio, _ := source.Div(target).Float64()
	chance := ratio * maxChance
	if chance > maxChance {
		return maxChance
	}
	if chance < 0 {
		return 0
	}
	return chance
}

// Multiplier returns target/source for display.
//
// Precondition: source > 0.
func Multiplier(source, target decimal.Decimal) decimal.Decimal {
	return target.DivRound(source, 4)
}

// Attempt is a priced upgrade between an owned entry and a catalog item.
type Attempt struct {
	Source     inventory.Entry `json:"source"`
	Target     *inventory.Item `json:"target"`
	Chance     float64         `json:"chance"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// NewAttempt prices an upgrade from source to target.
func NewAttempt(source inventory.Entry, target *inventory.Item, maxChance float64) Attempt {
	return Attempt{
		Source:     source,
		Target:     target,
		Chance:     ComputeChance(source.Item.Value, target.Value, maxChance),
		Multiplier: Multiplier(source.Item.Value, target.Value),
	}
}

// Roll draws r in [0, 100) and reports success iff r < chance.
func Roll(chance float64, src rng.Source) (success bool, r float64) {
	r = rng.Percent(src)
	return r < chance, r
}
