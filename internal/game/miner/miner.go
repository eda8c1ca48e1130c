// Package miner implements the twelve-cell minesweeper-style cashout game.
package miner

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

const (
	// TotalCells is the board size.
	TotalCells = 12
	// DefaultBombs is the stock bomb count.
	DefaultBombs = 6
	// StepMultiplier compounds once per safe reveal.
	StepMultiplier = 1.4
	// PayoutPlaces is the number of decimal places kept in a payout.
	PayoutPlaces = 2
)

// ErrNothingOpened rejects a cashout before the first safe reveal.
var ErrNothingOpened = gameerr.Validationf(gameerr.ErrInvalidChoice, "cashout requires an opened cell")

// Cell is one board square. IsBomb is only exposed once revealed or after
// the round ends.
type Cell struct {
	IsBomb   bool `json:"is_bomb"`
	IsOpened bool `json:"is_opened"`
}

// Multiplier returns StepMultiplier^opened.
func Multiplier(opened int) float64 {
	return math.Pow(StepMultiplier, float64(opened))
}

// PayoutFor returns bet × 1.4^opened truncated to PayoutPlaces.
func PayoutFor(bet decimal.Decimal, opened int) decimal.Decimal {
	step := decimal.RequireFromString("1.4")
	return bet.Mul(step.Pow(decimal.NewFromInt(int64(opened)))).Truncate(PayoutPlaces)
}

// Outcome is a finished round.
type Outcome struct {
	Result     round.Outcome   `json:"result"`
	Bet        decimal.Decimal `json:"bet"`
	Opened     int             `json:"opened"`
	Multiplier float64         `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	// Bombs lists every bomb index, revealed for feedback.
	Bombs []int `json:"bombs"`
}

// State is the player-visible snapshot.
type State struct {
	Active     bool            `json:"active"`
	Bet        decimal.Decimal `json:"bet"`
	BombCount  int             `json:"bomb_count"`
	Cells      []Cell          `json:"cells"`
	Opened     int             `json:"opened"`
	Multiplier float64         `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

// Game is one player's miner board.
//
// Invariant: opened == number of opened safe cells; a round is active until
// a bomb is hit, every safe cell is open, or the player cashes out.
// Not safe for concurrent use; the owning session serializes access.
type Game struct {
	active    bool
	bet       decimal.Decimal
	bombCount int
	cells     []Cell
	opened    int
}

// New returns an idle board.
func New() *Game { return &Game{} }

// Active reports whether a round is in progress.
func (g *Game) Active() bool { return g.active }

// CheckStart reports whether Start would accept bombs now.
func (g *Game) CheckStart(bombs int) error {
	if g.active {
		return gameerr.ErrRoundActive
	}
	if bombs < 1 || bombs >= TotalCells {
		return gameerr.Validationf(gameerr.ErrInvalidChoice, "bomb count %d outside 1-%d", bombs, TotalCells-1)
	}
	return nil
}

// Start places bombs uniformly without replacement and opens the round.
//
// Precondition: bet has already been debited.
func (g *Game) Start(bet decimal.Decimal, bombs int, src rng.Source) error {
	if err := g.CheckStart(bombs); err != nil {
		return err
	}
	g.place(bet, rng.Sample(src, TotalCells, bombs))
	return nil
}

// StartWithBombs opens a round with bombs at fixed positions, replaying a
// recorded board.
func (g *Game) StartWithBombs(bet decimal.Decimal, positions []int) error {
	if err := g.CheckStart(len(positions)); err != nil {
		return err
	}
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= TotalCells || seen[p] {
			return gameerr.Validationf(gameerr.ErrInvalidChoice, "bomb position %d", p)
		}
		seen[p] = true
	}
	g.place(bet, positions)
	return nil
}

func (g *Game) place(bet decimal.Decimal, bombs []int) {
	cells := make([]Cell, TotalCells)
	for _, idx := range bombs {
		cells[idx].IsBomb = true
	}
	g.active = true
	g.bet = bet
	g.bombCount = len(bombs)
	g.cells = cells
	g.opened = 0
}

// Reveal opens cell idx.
//
// Postcondition: returns a loss Outcome on a bomb, a win Outcome when the
// last safe cell opens, and nil while the round continues.
func (g *Game) Reveal(idx int) (*Outcome, error) {
	if !g.active {
		return nil, gameerr.ErrNoActiveRound
	}
	if idx < 0 || idx >= TotalCells {
		return nil, gameerr.Validationf(gameerr.ErrInvalidChoice, "cell %d outside 0-%d", idx, TotalCells-1)
	}
	if g.cells[idx].IsOpened {
		return nil, gameerr.Validationf(gameerr.ErrInvalidChoice, "cell %d already opened", idx)
	}
	g.cells[idx].IsOpened = true
	if g.cells[idx].IsBomb {
		out := g.finish(round.Loss, decimal.Zero)
		return &out, nil
	}
	g.opened++
	if g.opened == TotalCells-g.bombCount {
		out := g.finish(round.Win, PayoutFor(g.bet, g.opened))
		return &out, nil
	}
	return nil, nil
}

// Cashout ends the round paying the running payout.
//
// Precondition: at least one safe cell is open.
func (g *Game) Cashout() (Outcome, error) {
	if !g.active {
		return Outcome{}, gameerr.ErrNoActiveRound
	}
	if g.opened < 1 {
		return Outcome{}, ErrNothingOpened
	}
	return g.finish(round.Win, PayoutFor(g.bet, g.opened)), nil
}

// Snapshot returns the player-visible state; bombs stay hidden until
// revealed or the round ends.
func (g *Game) Snapshot() State {
	st := State{
		Active:     g.active,
		Bet:        g.bet,
		BombCount:  g.bombCount,
		Opened:     g.opened,
		Multiplier: Multiplier(g.opened),
		Payout:     PayoutFor(g.bet, g.opened),
		Cells:      make([]Cell, len(g.cells)),
	}
	for i, c := range g.cells {
		st.Cells[i] = Cell{IsOpened: c.IsOpened, IsBomb: c.IsBomb && (c.IsOpened || !g.active)}
	}
	return st
}

func (g *Game) finish(result round.Outcome, payout decimal.Decimal) Outcome {
	g.active = false
	var bombs []int
	for i, c := range g.cells {
		if c.IsBomb {
			bombs = append(bombs, i)
		}
	}
	return Outcome{
		Result:     result,
		Bet:        g.bet,
		Opened:     g.opened,
		Multiplier: Multiplier(g.opened),
		Payout:     payout,
		Bombs:      bombs,
	}
}
