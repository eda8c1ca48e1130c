package upgrade_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/upgrade"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeChance_CheaperTargetCapped(t *testing.T) {
	assert.Equal(t, 95.0, upgrade.ComputeChance(d(100), d(50), 95))
	assert.Equal(t, 95.0, upgrade.ComputeChance(d(100), d(100), 95))
}

func TestComputeChance_Scales(t *testing.T) {
	assert.InDelta(t, 47.5, upgrade.ComputeChance(d(50), d(100), 95), 1e-9)
	assert.InDelta(t, 4.75, upgrade.ComputeChance(d(250), d(5000), 95), 1e-9)
}

func TestComputeChance_Bounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := d(rapid.Int64Range(1, 100_000).Draw(rt, "source"))
		tgt := d(rapid.Int64Range(1, 100_000).Draw(rt, "target"))
		maxChance := rapid.Float64Range(1, 100).Draw(rt, "max")
		c := upgrade.ComputeChance(src, tgt, maxChance)
		if c < 0 || c > maxChance {
			rt.Fatalf("chance %v outside [0, %v]", c, maxChance)
		}
	})
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, "2", upgrade.Multiplier(d(50), d(100)).String())
	assert.Equal(t, "0.5", upgrade.Multiplier(d(100), d(50)).String())
}

func TestRoll(t *testing.T) {
	ok, r := upgrade.Roll(47.5, rng.NewSequence(0.47))
	assert.True(t, ok)
	assert.InDelta(t, 47.0, r, 1e-9)

	ok, _ = upgrade.Roll(47.5, rng.NewSequence(0.48))
	assert.False(t, ok)
}

func TestNewAttempt(t *testing.T) {
	src := inventory.Entry{InstanceID: "a", Item: inventory.Item{ID: "iron", Value: d(250), Rarity: inventory.Rare}}
	tgt := &inventory.Item{ID: "gold", Value: d(1000), Rarity: inventory.Epic}
	a := upgrade.NewAttempt(src, tgt, upgrade.DefaultMaxChance)
	assert.InDelta(t, 23.75, a.Chance, 1e-9)
	assert.Equal(t, "4", a.Multiplier.String())
}
