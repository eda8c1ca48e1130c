package loot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/loot"
	"github.com/cory-johannsen/starcase/internal/game/rng"
)

func testCatalog(t testing.TB) *inventory.Catalog {
	mk := func(id string, v int64, r inventory.Rarity) *inventory.Item {
		return &inventory.Item{ID: id, Name: id, Value: decimal.NewFromInt(v), Rarity: r}
	}
	c, err := inventory.BuildCatalog([]*inventory.Item{
		mk("stone", 50, inventory.Common), mk("wood", 75, inventory.Common), mk("coal", 100, inventory.Common),
		mk("iron", 250, inventory.Rare), mk("silver", 350, inventory.Rare), mk("emerald", 500, inventory.Rare),
		mk("gold", 1000, inventory.Epic), mk("platinum", 1500, inventory.Epic), mk("ruby", 2000, inventory.Epic),
		mk("diamond", 5000, inventory.Legendary), mk("star_crystal", 10000, inventory.Legendary), mk("mythril", 15000, inventory.Legendary),
	})
	require.NoError(t, err)
	return c
}

func commonTier(t testing.TB) *loot.Tier {
	tier, err := loot.NewTier(loot.TierDef{
		ID:    "common",
		Price: decimal.NewFromInt(100),
		Weights: []loot.RarityWeight{
			{Rarity: inventory.Common, Weight: 60},
			{Rarity: inventory.Rare, Weight: 30},
			{Rarity: inventory.Epic, Weight: 9},
			{Rarity: inventory.Legendary, Weight: 1},
		},
	}, testCatalog(t))
	require.NoError(t, err)
	return tier
}

func TestDraw_SelectsByCumulativeWeight(t *testing.T) {
	tier := commonTier(t)
	cases := []struct {
		roll, pick float64
		want       string
	}{
		{0.0, 0.0, "stone"},
		{0.6, 0.99, "coal"},
		{0.7, 0.0, "iron"},
		{0.9, 0.5, "silver"},
		{0.95, 0.4, "platinum"},
		{0.995, 0.9, "mythril"},
	}
	for _, tc := range cases {
		d := tier.Draw(rng.NewSequence(tc.roll, tc.pick))
		assert.Equal(t, tc.want, d.Item.ID, "roll=%v pick=%v", tc.roll, tc.pick)
		assert.False(t, d.Fallback)
	}
}

func TestDraw_NormalizesWeights(t *testing.T) {
	tier, err := loot.NewTier(loot.TierDef{
		ID:    "half",
		Price: decimal.NewFromInt(1),
		Weights: []loot.RarityWeight{
			{Rarity: inventory.Common, Weight: 1},
			{Rarity: inventory.Rare, Weight: 1},
		},
	}, testCatalog(t))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, tier.Weights[0].Weight, 1e-12)

	d := tier.Draw(rng.NewSequence(0.75, 0.0))
	assert.Equal(t, inventory.Rare, d.Rarity)
	assert.False(t, d.Fallback)
}

func TestDraw_FallbackPastLastBoundary(t *testing.T) {
	tier := commonTier(t)
	// Emulate rounding drift that leaves the table short of 100.
	tier.Weights[3].Weight = 0.999999
	d := tier.Draw(rng.NewSequence(0.9999999999))
	assert.True(t, d.Fallback)
	assert.Equal(t, "stone", d.Item.ID)
	assert.Equal(t, inventory.Common, d.Rarity)
	assert.Equal(t, tier.Fallback(), d.Item)
}

func TestNewTier_FallbackFollowsDeclaredOrder(t *testing.T) {
	tier, err := loot.NewTier(loot.TierDef{
		ID:    "top_heavy",
		Price: decimal.NewFromInt(1000),
		Weights: []loot.RarityWeight{
			{Rarity: inventory.Epic, Weight: 70},
			{Rarity: inventory.Common, Weight: 30},
		},
	}, testCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, "gold", tier.Fallback().ID)
}

func TestDraw_ZeroWeightNeverSelected(t *testing.T) {
	tier, err := loot.NewTier(loot.TierDef{
		ID:    "no_common",
		Price: decimal.NewFromInt(1),
		Weights: []loot.RarityWeight{
			{Rarity: inventory.Common, Weight: 0},
			{Rarity: inventory.Epic, Weight: 100},
		},
	}, testCatalog(t))
	require.NoError(t, err)
	d := tier.Draw(rng.NewSequence(0.0, 0.0))
	assert.Equal(t, inventory.Epic, d.Rarity)
}

func TestDraw_AlwaysReturnsItem(t *testing.T) {
	tier := commonTier(t)
	rapid.Check(t, func(rt *rapid.T) {
		roll := rapid.Float64Range(0, 0.9999999999).Draw(rt, "roll")
		pick := rapid.Float64Range(0, 0.9999999999).Draw(rt, "pick")
		d := tier.Draw(rng.NewSequence(roll, pick))
		if d.Item == nil {
			rt.Fatalf("no item for roll %v", roll)
		}
		if d.Roll < 0 || d.Roll >= 100 {
			rt.Fatalf("roll %v outside [0, 100)", d.Roll)
		}
	})
}

func TestOpen_Quantity(t *testing.T) {
	tier := commonTier(t)
	drops, err := loot.Open(tier, 3, rng.NewSeededSource(7))
	require.NoError(t, err)
	assert.Len(t, drops, 3)

	_, err = loot.Open(tier, 0, rng.NewSeededSource(7))
	assert.ErrorIs(t, err, gameerr.ErrValidation)
}

func TestOpen_DistributionRoughlyMatchesWeights(t *testing.T) {
	tier := commonTier(t)
	const n = 50_000
	drops, err := loot.Open(tier, n, rng.NewSeededSource(1))
	require.NoError(t, err)
	counts := map[inventory.Rarity]int{}
	for _, d := range drops {
		counts[d.Rarity]++
	}
	assert.InDelta(t, 0.60, float64(counts[inventory.Common])/n, 0.01)
	assert.InDelta(t, 0.30, float64(counts[inventory.Rare])/n, 0.01)
	assert.InDelta(t, 0.09, float64(counts[inventory.Epic])/n, 0.01)
}

func TestNewTier_ConfigurationErrors(t *testing.T) {
	cat := testCatalog(t)
	defs := []loot.TierDef{
		{ID: "", Weights: []loot.RarityWeight{{Rarity: inventory.Common, Weight: 1}}},
		{ID: "x", Weights: nil},
		{ID: "x", Weights: []loot.RarityWeight{{Rarity: "mythic", Weight: 1}}},
		{ID: "x", Weights: []loot.RarityWeight{{Rarity: inventory.Common, Weight: 0}}},
		{ID: "x", Weights: []loot.RarityWeight{{Rarity: inventory.Common, Weight: -1}}},
		{ID: "x", Weights: []loot.RarityWeight{{Rarity: inventory.Common, Weight: 1}, {Rarity: inventory.Common, Weight: 1}}},
	}
	for _, def := range defs {
		_, err := loot.NewTier(def, cat)
		assert.ErrorIs(t, err, gameerr.ErrConfiguration, "def %+v", def)
	}

	empty := inventory.NewCatalog()
	_, err := loot.NewTier(loot.TierDef{ID: "x", Weights: []loot.RarityWeight{{Rarity: inventory.Rare, Weight: 1}}}, empty)
	assert.ErrorIs(t, err, gameerr.ErrConfiguration)
}

func TestSet_UnknownTier(t *testing.T) {
	s, err := loot.NewSet(commonTier(t))
	require.NoError(t, err)
	_, err = s.Tier("mythic")
	assert.ErrorIs(t, err, gameerr.ErrUnknownTier)

	_, err = loot.NewSet(commonTier(t), commonTier(t))
	assert.ErrorIs(t, err, gameerr.ErrConfiguration)
}

func TestLoadTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cases:
  - id: rare
    name: Rare case
    price: 250
    weights:
      - {rarity: common, weight: 40}
      - {rarity: rare, weight: 40}
      - {rarity: epic, weight: 18}
      - {rarity: legendary, weight: 2}
`), 0644))
	set, err := loot.LoadTiers(path, testCatalog(t))
	require.NoError(t, err)
	tier, err := set.Tier("rare")
	require.NoError(t, err)
	assert.Equal(t, "250", tier.Price.String())
	assert.Len(t, tier.Weights, 4)
}
