package blackjack

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// Phase is the round state.
type Phase string

const (
	Betting    Phase = "betting"
	Playing    Phase = "playing"
	DealerTurn Phase = "dealer_turn"
	Finished   Phase = "finished"
)

// DealerStandsOn is the total at which the dealer stops drawing.
const DealerStandsOn = 17

var (
	naturalMultiplier = decimal.RequireFromString("2.5")
	winMultiplier     = decimal.NewFromInt(2)
)

// ErrDeckExhausted is returned when a draw is requested from an empty deck.
var ErrDeckExhausted = errors.New("blackjack: deck exhausted")

// Reason explains how a round ended.
type Reason string

const (
	Natural    Reason = "blackjack"
	PlayerBust Reason = "player_bust"
	DealerBust Reason = "dealer_bust"
	Higher     Reason = "player_higher"
	Lower      Reason = "dealer_higher"
	Tie        Reason = "push"
)

// Outcome is a finished round.
type Outcome struct {
	Result      round.Outcome   `json:"result"`
	Reason      Reason          `json:"reason"`
	Stake       decimal.Decimal `json:"stake"`
	Payout      decimal.Decimal `json:"payout"`
	PlayerScore int             `json:"player_score"`
	DealerScore int             `json:"dealer_score"`
}

// State is the player-visible snapshot. The dealer's hole card is omitted
// while the player is still acting.
type State struct {
	Phase       Phase           `json:"phase"`
	Stake       decimal.Decimal `json:"stake"`
	PlayerHand  []Card          `json:"player_hand"`
	DealerHand  []Card          `json:"dealer_hand"`
	PlayerScore int             `json:"player_score"`
	DealerScore int             `json:"dealer_score"`
	CanDouble   bool            `json:"can_double"`
}

// Game is one player's blackjack table.
//
// Invariant: stake > 0 whenever phase is Playing.
// Not safe for concurrent use; the owning session serializes access.
type Game struct {
	phase     Phase
	stake     decimal.Decimal
	deck      []Card
	player    []Card
	dealer    []Card
	canDouble bool
}

// New returns a table waiting for a bet.
func New() *Game {
	return &Game{phase: Betting}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// Stake returns the amount riding on the current hand.
func (g *Game) Stake() decimal.Decimal { return g.stake }

// CanDouble reports whether Double is currently allowed.
func (g *Game) CanDouble() bool { return g.phase == Playing && g.canDouble }

// InRound reports whether a hand is awaiting player action.
func (g *Game) InRound() bool { return g.phase == Playing || g.phase == DealerTurn }

// Deal starts a hand with a freshly shuffled deck.
//
// Precondition: bet has already been debited.
// Postcondition: on a natural 21 the returned Outcome is non-nil and the
// phase is Finished; otherwise the phase is Playing.
func (g *Game) Deal(bet decimal.Decimal, src rng.Source) (*Outcome, error) {
	if g.InRound() {
		return nil, gameerr.ErrRoundActive
	}
	return g.DealFrom(bet, ShuffledDeck(src))
}

// DealFrom starts a hand drawing from deck in order: two cards to the
// player, then two to the dealer.
func (g *Game) DealFrom(bet decimal.Decimal, deck []Card) (*Outcome, error) {
	if g.InRound() {
		return nil, gameerr.ErrRoundActive
	}
	if len(deck) < 4 {
		return nil, ErrDeckExhausted
	}
	g.deck = append([]Card(nil), deck...)
	g.stake = bet
	g.player = []Card{g.draw(), g.draw()}
	g.dealer = []Card{g.draw(), g.draw()}
	g.canDouble = true
	g.phase = Playing

	if Score(g.player) == 21 {
		out := g.finish(round.Win, Natural, round.FloorPayout(g.stake, naturalMultiplier))
		return &out, nil
	}
	return nil, nil
}

// Hit deals one card to the player and forbids doubling.
//
// Postcondition: on a bust the returned Outcome is non-nil.
func (g *Game) Hit() (*Outcome, error) {
	if g.phase != Playing {
		return nil, gameerr.ErrNoActiveRound
	}
	if len(g.deck) == 0 {
		return nil, ErrDeckExhausted
	}
	g.player = append(g.player, g.draw())
	g.canDouble = false
	if Score(g.player) > 21 {
		out := g.finish(round.Loss, PlayerBust, decimal.Zero)
		return &out, nil
	}
	return nil, nil
}

// Stand reveals the hole card, plays out the dealer and settles the hand.
func (g *Game) Stand() (Outcome, error) {
	if g.phase != Playing {
		return Outcome{}, gameerr.ErrNoActiveRound
	}
	g.phase = DealerTurn
	for Score(g.dealer) < DealerStandsOn {
		if len(g.deck) == 0 {
			return Outcome{}, ErrDeckExhausted
		}
		g.dealer = append(g.dealer, g.draw())
	}

	ps, ds := Score(g.player), Score(g.dealer)
	switch {
	case ds > 21:
		return g.finish(round.Win, DealerBust, g.stake.Mul(winMultiplier)), nil
	case ps > ds:
		return g.finish(round.Win, Higher, g.stake.Mul(winMultiplier)), nil
	case ds > ps:
		return g.finish(round.Loss, Lower, decimal.Zero), nil
	default:
		return g.finish(round.Push, Tie, g.stake), nil
	}
}

// Double doubles the stake, deals exactly one card and then stands unless
// the player busts.
//
// Precondition: the extra stake equal to the original bet has already been
// debited.
func (g *Game) Double() (Outcome, error) {
	if !g.CanDouble() {
		return Outcome{}, gameerr.ErrNoActiveRound
	}
	if len(g.deck) == 0 {
		return Outcome{}, ErrDeckExhausted
	}
	g.stake = g.stake.Mul(decimal.NewFromInt(2))
	g.player = append(g.player, g.draw())
	g.canDouble = false
	if Score(g.player) > 21 {
		return g.finish(round.Loss, PlayerBust, decimal.Zero), nil
	}
	return g.Stand()
}

// Snapshot returns the player-visible state.
func (g *Game) Snapshot() State {
	st := State{
		Phase:       g.phase,
		Stake:       g.stake,
		PlayerHand:  append([]Card(nil), g.player...),
		PlayerScore: Score(g.player),
		CanDouble:   g.CanDouble(),
	}
	if g.phase == Playing && len(g.dealer) > 0 {
		st.DealerHand = []Card{g.dealer[0]}
	} else {
		st.DealerHand = append([]Card(nil), g.dealer...)
	}
	st.DealerScore = Score(st.DealerHand)
	return st
}

func (g *Game) draw() Card {
	c := g.deck[0]
	g.deck = g.deck[1:]
	return c
}

func (g *Game) finish(result round.Outcome, reason Reason, payout decimal.Decimal) Outcome {
	g.phase = Finished
	g.canDouble = false
	return Outcome{
		Result:      result,
		Reason:      reason,
		Stake:       g.stake,
		Payout:      payout,
		PlayerScore: Score(g.player),
		DealerScore: Score(g.dealer),
	}
}
