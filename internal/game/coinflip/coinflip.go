// Package coinflip resolves biased heads-or-tails rounds.
package coinflip

import (
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// Side is a coin face.
type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// Other returns the opposite face.
func (s Side) Other() Side {
	if s == Heads {
		return Tails
	}
	return Heads
}

// ParseSide resolves a face name.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Heads, Tails:
		return Side(s), nil
	}
	return "", gameerr.Validationf(gameerr.ErrInvalidChoice, "coin side %q", s)
}

// WinProbability is the chance that the player's side comes up.
const WinProbability = 0.485

// PayoutMultiplier is applied to the bet on a win, floored.
var PayoutMultiplier = decimal.RequireFromString("1.9")

// Result is a resolved flip.
type Result struct {
	Choice Side            `json:"choice"`
	Landed Side            `json:"landed"`
	Won    bool            `json:"won"`
	Payout decimal.Decimal `json:"payout"`
}

// Flip resolves one round with a single draw: the player's side lands iff
// the draw is below WinProbability.
//
// Precondition: bet passed round.ValidateBet and has already been debited.
// Postcondition: Payout is floor(bet × 1.9) on a win and zero otherwise.
func Flip(bet decimal.Decimal, choice Side, src rng.Source) Result {
	res := Result{Choice: choice, Payout: decimal.Zero}
	if src.Float64() < WinProbability {
		res.Landed = choice
		res.Won = true
		res.Payout = round.FloorPayout(bet, PayoutMultiplier)
	} else {
		res.Landed = choice.Other()
	}
	return res
}
