// Package tower implements the five-row, two-column ladder game.
package tower

import (
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

const (
	Rows    = 5
	Columns = 2
)

// Payouts are the bet multipliers unlocked by clearing 1..Rows rows.
var Payouts = [Rows]int64{2, 4, 8, 16, 32}

// ErrNothingCleared rejects a cashout before the first cleared row.
var ErrNothingCleared = gameerr.Validationf(gameerr.ErrInvalidChoice, "cashout requires a cleared row")

// Outcome is a finished climb.
type Outcome struct {
	Result     round.Outcome   `json:"result"`
	Bet        decimal.Decimal `json:"bet"`
	Cleared    int             `json:"cleared"`
	Multiplier int64           `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	// BombColumns reveals the bomb column of every row.
	BombColumns []int `json:"bomb_columns"`
}

// State is the player-visible snapshot.
type State struct {
	Active     bool            `json:"active"`
	Bet        decimal.Decimal `json:"bet"`
	CurrentRow int             `json:"current_row"`
	Picks      []int           `json:"picks"`
	Multiplier int64           `json:"multiplier"`
	// BombColumns is only populated once the climb has ended.
	BombColumns []int `json:"bomb_columns,omitempty"`
}

// Game is one player's tower.
//
// Invariant: 0 <= currentRow <= Rows; currentRow counts cleared rows.
// Not safe for concurrent use; the owning session serializes access.
type Game struct {
	active     bool
	bet        decimal.Decimal
	bombs      [Rows]int
	currentRow int
	picks      []int
}

// New returns an idle tower.
func New() *Game { return &Game{} }

// Active reports whether a climb is in progress.
func (g *Game) Active() bool { return g.active }

// CheckStart reports whether Start would succeed now.
func (g *Game) CheckStart() error {
	if g.active {
		return gameerr.ErrRoundActive
	}
	return nil
}

// Start draws one bomb column per row and opens the climb.
//
// Precondition: bet has already been debited.
func (g *Game) Start(bet decimal.Decimal, src rng.Source) error {
	var bombs [Rows]int
	for i := range bombs {
		bombs[i] = rng.Intn(src, Columns)
	}
	return g.StartWithBombs(bet, bombs)
}

// StartWithBombs opens a climb with fixed bomb columns, replaying a recorded
// tower.
func (g *Game) StartWithBombs(bet decimal.Decimal, bombs [Rows]int) error {
	if err := g.CheckStart(); err != nil {
		return err
	}
	for _, c := range bombs {
		if c < 0 || c >= Columns {
			return gameerr.Validationf(gameerr.ErrInvalidChoice, "bomb column %d", c)
		}
	}
	g.active = true
	g.bet = bet
	g.bombs = bombs
	g.currentRow = 0
	g.picks = nil
	return nil
}

// Multiplier returns the payout multiplier for cleared rows, zero when none.
func Multiplier(cleared int) int64 {
	if cleared < 1 {
		return 0
	}
	if cleared > Rows {
		cleared = Rows
	}
	return Payouts[cleared-1]
}

// Pick chooses a column in the current row.
//
// Postcondition: returns a loss Outcome on the bomb column, a win Outcome at
// 32× when the last row is cleared, and nil while the climb continues.
func (g *Game) Pick(column int) (*Outcome, error) {
	if !g.active {
		return nil, gameerr.ErrNoActiveRound
	}
	if column < 0 || column >= Columns {
		return nil, gameerr.Validationf(gameerr.ErrInvalidChoice, "column %d outside 0-%d", column, Columns-1)
	}
	g.picks = append(g.picks, column)
	if column == g.bombs[g.currentRow] {
		out := g.finish(round.Loss, decimal.Zero)
		return &out, nil
	}
	g.currentRow++
	if g.currentRow == Rows {
		out := g.finish(round.Win, g.payout())
		return &out, nil
	}
	return nil, nil
}

// Cashout ends the climb paying the tier of the highest cleared row.
func (g *Game) Cashout() (Outcome, error) {
	if !g.active {
		return Outcome{}, gameerr.ErrNoActiveRound
	}
	if g.currentRow < 1 {
		return Outcome{}, ErrNothingCleared
	}
	return g.finish(round.Win, g.payout()), nil
}

// Snapshot returns the player-visible state.
func (g *Game) Snapshot() State {
	st := State{
		Active:     g.active,
		Bet:        g.bet,
		CurrentRow: g.currentRow,
		Picks:      append([]int(nil), g.picks...),
		Multiplier: Multiplier(g.currentRow),
	}
	if !g.active && g.picks != nil {
		st.BombColumns = append([]int(nil), g.bombs[:]...)
	}
	return st
}

func (g *Game) payout() decimal.Decimal {
	return g.bet.Mul(decimal.NewFromInt(Multiplier(g.currentRow)))
}

func (g *Game) finish(result round.Outcome, payout decimal.Decimal) Outcome {
	g.active = false
	return Outcome{
		Result:      result,
		Bet:         g.bet,
		Cleared:     g.currentRow,
		Multiplier:  Multiplier(g.currentRow),
		Payout:      payout,
		BombColumns: append([]int(nil), g.bombs[:]...),
	}
}
