// Package crash implements the rising-multiplier crash game as a pure state
// machine. Time enters only through the timestamps passed to Start and Tick,
// so a caller-owned scheduler drives the round loop.
package crash

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// Phase is the round state.
type Phase string

const (
	Idle    Phase = "idle"
	Running Phase = "running"
	Crashed Phase = "crashed"
)

const (
	// HistoryLimit bounds the crash point history.
	HistoryLimit = 10
	// GrowthPerSecond is the linear multiplier slope.
	GrowthPerSecond = 0.1
	// MaxCrashPoint is the exclusive upper bound of a crash point.
	MaxCrashPoint = 100.0
)

// CrashPoint samples a round's crash multiplier: [1,2) with probability 0.5,
// [2,5) with 0.3, [5,15) with 0.15 and [15,100) with 0.05.
//
// Postcondition: 1 <= result < 100; exactly two draws are consumed.
func CrashPoint(src rng.Source) float64 {
	tier := src.Float64()
	switch {
	case tier < 0.5:
		return rng.Uniform(src, 1, 2)
	case tier < 0.8:
		return rng.Uniform(src, 2, 5)
	case tier < 0.95:
		return rng.Uniform(src, 5, 15)
	default:
		return rng.Uniform(src, 15, MaxCrashPoint)
	}
}

// MultiplierAt returns the multiplier after elapsed running time.
func MultiplierAt(elapsed time.Duration) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	return 1 + elapsed.Seconds()*GrowthPerSecond
}

// Bet is a stake riding the current or next round. AutoCashout of zero
// disables automatic cashout.
type Bet struct {
	Amount      decimal.Decimal `json:"amount"`
	AutoCashout float64         `json:"auto_cashout,omitempty"`
}

// Cashout is a settled bet.
type Cashout struct {
	Bet        decimal.Decimal `json:"bet"`
	Multiplier float64         `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Auto       bool            `json:"auto"`
}

// TickResult reports what a tick changed.
type TickResult struct {
	Multiplier float64
	// Cashout is set when the auto-cashout threshold was reached this tick.
	Cashout *Cashout
	Crashed bool
	// CrashPoint is only meaningful when Crashed is set.
	CrashPoint float64
	// Forfeited is the bet lost to the crash, if any.
	Forfeited *Bet
}

// State is the player-visible snapshot of a Game.
type State struct {
	Phase      Phase     `json:"phase"`
	Round      int       `json:"round"`
	Multiplier float64   `json:"multiplier"`
	Bet        *Bet      `json:"bet,omitempty"`
	History    []float64 `json:"history"`
	// CrashPoint is only revealed once the round has crashed.
	CrashPoint float64 `json:"crash_point,omitempty"`
}

// Game is one player's crash table.
//
// Invariant: len(history) <= HistoryLimit, newest first.
// Invariant: the crash point is never exposed while Running.
// Not safe for concurrent use; the owning session serializes access.
type Game struct {
	phase      Phase
	round      int
	crashPoint float64
	startedAt  time.Time
	multiplier float64
	bet        *Bet
	history    []float64
}

// New returns an idle table.
func New() *Game {
	return &Game{phase: Idle, multiplier: 1}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// HasBet reports whether a bet is riding.
func (g *Game) HasBet() bool { return g.bet != nil }

// History returns the crash points, newest first.
func (g *Game) History() []float64 { return append([]float64(nil), g.history...) }

// Start begins a new round at now with a freshly drawn crash point.
//
// Precondition: phase is Idle or Crashed.
// Postcondition: phase is Running and the multiplier is 1.
func (g *Game) Start(now time.Time, src rng.Source) error {
	if g.phase == Running {
		return gameerr.ErrRoundActive
	}
	g.round++
	g.crashPoint = CrashPoint(src)
	g.startedAt = now
	g.multiplier = 1
	g.phase = Running
	return nil
}

// PlaceBet stakes amount on the running round, or on the next one during
// the cooldown after a crash.
//
// Precondition: amount has already been debited.
// Postcondition: returns ErrRoundActive when a bet is already riding and
// ErrNoActiveRound while the table is idle.
func (g *Game) PlaceBet(amount decimal.Decimal, autoCashout float64) error {
	if err := g.CheckBet(autoCashout); err != nil {
		return err
	}
	g.bet = &Bet{Amount: amount, AutoCashout: autoCashout}
	return nil
}

// CheckBet reports whether PlaceBet would accept a bet now, without
// mutating anything. Callers use it before debiting.
func (g *Game) CheckBet(autoCashout float64) error {
	if g.bet != nil {
		return gameerr.ErrRoundActive
	}
	if g.phase == Idle {
		return gameerr.ErrNoActiveRound
	}
	if autoCashout != 0 && autoCashout < 1 {
		return gameerr.Validationf(gameerr.ErrInvalidChoice, "auto cashout %v below 1", autoCashout)
	}
	return nil
}

// Tick advances the running round to now. Auto-cashout is evaluated before
// the crash check, so a bet whose threshold is reached on the crashing tick
// is paid.
//
// Precondition: phase is Running; otherwise Tick is a no-op.
func (g *Game) Tick(now time.Time) TickResult {
	if g.phase != Running {
		return TickResult{Multiplier: g.multiplier}
	}
	g.multiplier = MultiplierAt(now.Sub(g.startedAt))
	res := TickResult{Multiplier: g.multiplier}

	if g.bet != nil && g.bet.AutoCashout > 0 && g.multiplier >= g.bet.AutoCashout {
		c := g.settle(true)
		res.Cashout = &c
	}
	if g.multiplier >= g.crashPoint {
		res.Crashed = true
		res.CrashPoint = g.crashPoint
		res.Forfeited = g.bet
		g.bet = nil
		g.phase = Crashed
		g.pushHistory(g.crashPoint)
	}
	return res
}

// Cashout settles the riding bet at the current multiplier.
//
// Postcondition: payout is floor(bet × multiplier); returns ErrNoActiveRound
// unless Running with a bet.
func (g *Game) Cashout() (Cashout, error) {
	if g.phase != Running || g.bet == nil {
		return Cashout{}, gameerr.ErrNoActiveRound
	}
	return g.settle(false), nil
}

// Abandon returns the table to Idle, forfeiting and returning any riding
// bet. History is kept.
func (g *Game) Abandon() *Bet {
	lost := g.bet
	g.bet = nil
	g.phase = Idle
	g.multiplier = 1
	return lost
}

// Snapshot returns the player-visible state.
func (g *Game) Snapshot() State {
	st := State{
		Phase:      g.phase,
		Round:      g.round,
		Multiplier: g.multiplier,
		History:    g.History(),
	}
	if g.bet != nil {
		b := *g.bet
		st.Bet = &b
	}
	if g.phase == Crashed {
		st.CrashPoint = g.crashPoint
	}
	return st
}

func (g *Game) settle(auto bool) Cashout {
	mult := decimal.NewFromFloat(g.multiplier)
	c := Cashout{
		Bet:        g.bet.Amount,
		Multiplier: g.multiplier,
		Payout:     round.FloorPayout(g.bet.Amount, mult),
		Auto:       auto,
	}
	g.bet = nil
	return c
}

func (g *Game) pushHistory(point float64) {
	g.history = append([]float64{point}, g.history...)
	if len(g.history) > HistoryLimit {
		g.history = g.history[:HistoryLimit]
	}
}
