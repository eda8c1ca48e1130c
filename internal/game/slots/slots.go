// Package slots resolves three-reel slot machine spins.
package slots

import (
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// Symbol is a reel face and the multiplier its triple pays.
type Symbol struct {
	Name       string          `json:"name"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// Symbols is the reel strip; each reel draws uniformly from it.
var Symbols = []Symbol{
	{Name: "lemon", Multiplier: decimal.NewFromInt(10)},
	{Name: "cherry", Multiplier: decimal.NewFromInt(5)},
	{Name: "seven", Multiplier: decimal.NewFromInt(20)},
}

// PairMultiplier pays exactly two matching reels, floored.
var PairMultiplier = decimal.RequireFromString("1.5")

// Kind classifies a spin.
type Kind string

const (
	Jackpot Kind = "jackpot"
	Pair    Kind = "pair"
	Nothing Kind = "nothing"
)

// Result is a resolved spin.
type Result struct {
	Reels  [3]Symbol       `json:"reels"`
	Kind   Kind            `json:"kind"`
	Payout decimal.Decimal `json:"payout"`
}

// Spin draws three reels and evaluates them together.
//
// Precondition: bet has already been debited.
// Postcondition: a triple pays bet × the symbol's multiplier, a pair pays
// floor(bet × 1.5), anything else pays zero.
func Spin(bet decimal.Decimal, src rng.Source) Result {
	var res Result
	for i := range res.Reels {
		res.Reels[i] = Symbols[rng.Intn(src, len(Symbols))]
	}
	a, b, c := res.Reels[0].Name, res.Reels[1].Name, res.Reels[2].Name
	switch {
	case a == b && b == c:
		res.Kind = Jackpot
		res.Payout = bet.Mul(res.Reels[0].Multiplier)
	case a == b || b == c || a == c:
		res.Kind = Pair
		res.Payout = round.FloorPayout(bet, PairMultiplier)
	default:
		res.Kind = Nothing
		res.Payout = decimal.Zero
	}
	return res
}
