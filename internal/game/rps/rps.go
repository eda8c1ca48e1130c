// Package rps resolves rock-paper-scissors rounds against a uniform opponent.
package rps

import (
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// Choice is a hand shape.
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Choices lists the shapes in draw order.
var Choices = []Choice{Rock, Paper, Scissors}

var beats = map[Choice]Choice{Rock: Scissors, Paper: Rock, Scissors: Paper}

// ParseChoice resolves a shape name.
func ParseChoice(s string) (Choice, error) {
	for _, c := range Choices {
		if string(c) == s {
			return c, nil
		}
	}
	return "", gameerr.Validationf(gameerr.ErrInvalidChoice, "hand %q", s)
}

// Beats reports whether c defeats other.
func (c Choice) Beats(other Choice) bool { return beats[c] == other }

// PayoutMultiplier is applied to the bet on a win, floored.
var PayoutMultiplier = decimal.RequireFromString("1.8")

// Result is a resolved round.
type Result struct {
	Player   Choice          `json:"player"`
	Computer Choice          `json:"computer"`
	Outcome  round.Outcome   `json:"outcome"`
	Payout   decimal.Decimal `json:"payout"`
}

// Play resolves one round. A draw refunds the bet, a win pays
// floor(bet × 1.8), a loss pays nothing.
//
// Precondition: bet has already been debited.
func Play(bet decimal.Decimal, player Choice, src rng.Source) Result {
	computer := Choices[rng.Intn(src, len(Choices))]
	res := Result{Player: player, Computer: computer, Payout: decimal.Zero}
	switch {
	case player == computer:
		res.Outcome = round.Push
		res.Payout = bet
	case player.Beats(computer):
		res.Outcome = round.Win
		res.Payout = round.FloorPayout(bet, PayoutMultiplier)
	default:
		res.Outcome = round.Loss
	}
	return res
}
