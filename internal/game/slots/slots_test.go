package slots_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/slots"
)

// reel draws: 0.1 lemon, 0.5 cherry, 0.9 seven

func TestSpin_Jackpot(t *testing.T) {
	res := slots.Spin(decimal.NewFromInt(10), rng.NewSequence(0.9, 0.9, 0.9))
	assert.Equal(t, slots.Jackpot, res.Kind)
	assert.Equal(t, "200", res.Payout.String())

	res = slots.Spin(decimal.NewFromInt(10), rng.NewSequence(0.5, 0.5, 0.5))
	assert.Equal(t, "50", res.Payout.String())
}

func TestSpin_PairAnyPosition(t *testing.T) {
	for _, draws := range [][]float64{{0.1, 0.1, 0.5}, {0.5, 0.1, 0.1}, {0.1, 0.9, 0.1}} {
		res := slots.Spin(decimal.NewFromInt(7), rng.NewSequence(draws...))
		assert.Equal(t, slots.Pair, res.Kind, "draws %v", draws)
		assert.Equal(t, "10", res.Payout.String(), "floor(7 × 1.5)")
	}
}

func TestSpin_Nothing(t *testing.T) {
	res := slots.Spin(decimal.NewFromInt(10), rng.NewSequence(0.1, 0.5, 0.9))
	assert.Equal(t, slots.Nothing, res.Kind)
	assert.True(t, res.Payout.IsZero())
}

func TestSpin_PayoutMatchesKind(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bet := decimal.NewFromInt(rapid.Int64Range(1, 10_000).Draw(rt, "bet"))
		seed := rapid.Uint64().Draw(rt, "seed")
		res := slots.Spin(bet, rng.NewSeededSource(seed))
		switch res.Kind {
		case slots.Nothing:
			assert.True(rt, res.Payout.IsZero())
		case slots.Pair:
			assert.True(rt, res.Payout.Equal(bet.Mul(slots.PairMultiplier).Floor()))
		case slots.Jackpot:
			assert.True(rt, res.Payout.GreaterThanOrEqual(bet.Mul(decimal.NewFromInt(5))))
		}
	})
}
