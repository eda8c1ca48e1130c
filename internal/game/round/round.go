// Package round holds the vocabulary shared by mini-game engines and the
// session orchestrator: game identifiers, outcomes and payout arithmetic.
package round

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// Game identifies a mini-game.
type Game string

// Supported games.
const (
	Coinflip  Game = "coinflip"
	RPS       Game = "rps"
	Slots     Game = "slots"
	Crash     Game = "crash"
	Blackjack Game = "blackjack"
	Miner     Game = "miner"
	Tower     Game = "tower"
)

// Games lists every game in display order.
var Games = []Game{Coinflip, RPS, Slots, Crash, Blackjack, Miner, Tower}

// ParseGame resolves a game identifier.
func ParseGame(s string) (Game, error) {
	for _, g := range Games {
		if string(g) == s {
			return g, nil
		}
	}
	return "", gameerr.Validationf(gameerr.ErrUnknownGame, "%q", s)
}

// Outcome is the resolution of a round from the player's side.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Push Outcome = "push"
)

// Result describes one resolved round.
//
// Invariant: Payout is zero when Outcome is Loss.
type Result struct {
	Game       Game            `json:"game"`
	Outcome    Outcome         `json:"outcome"`
	Bet        decimal.Decimal `json:"bet"`
	Payout     decimal.Decimal `json:"payout"`
	Multiplier float64         `json:"multiplier,omitempty"`
	// State is the engine's final snapshot for rendering.
	State any `json:"state,omitempty"`
}

// Net returns payout minus bet.
func (r Result) Net() decimal.Decimal {
	return r.Payout.Sub(r.Bet)
}

// FloorPayout returns floor(bet × multiplier).
func FloorPayout(bet decimal.Decimal, multiplier decimal.Decimal) decimal.Decimal {
	return bet.Mul(multiplier).Floor()
}

// ValidateBet checks that bet is a whole amount greater than zero.
// Balance coverage is enforced separately by the ledger.
func ValidateBet(bet decimal.Decimal) error {
	if !bet.IsPositive() {
		return gameerr.Validationf(gameerr.ErrInvalidBet, "got %s", bet)
	}
	if !bet.Equal(bet.Truncate(0)) {
		return gameerr.Validationf(gameerr.ErrInvalidBet, "got %s", bet)
	}
	return nil
}

// ParseBet parses a raw bet as entered by the player.
func ParseBet(raw string) (decimal.Decimal, error) {
	bet, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", gameerr.ErrInvalidBet, raw)
	}
	if err := ValidateBet(bet); err != nil {
		return decimal.Zero, err
	}
	return bet, nil
}
