package session

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/blackjack"
	"github.com/cory-johannsen/starcase/internal/game/coinflip"
	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/miner"
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/rps"
	"github.com/cory-johannsen/starcase/internal/game/slots"
	"github.com/cory-johannsen/starcase/internal/game/tower"
)

// BetOptions carries the per-game parameters of PlaceBet.
type BetOptions struct {
	// Choice is the coinflip side or RPS hand.
	Choice string `json:"choice,omitempty"`
	// Bombs overrides the miner bomb count; zero uses the configured default.
	Bombs int `json:"bombs,omitempty"`
	// AutoCashout arms crash auto-cashout; zero disables it.
	AutoCashout float64 `json:"auto_cashout,omitempty"`
}

// Blackjack choices accepted by ResolveChoice.
const (
	ChoiceHit    = "hit"
	ChoiceStand  = "stand"
	ChoiceDouble = "double"
)

// PlaceBet stakes bet on game. Single-shot games resolve immediately and
// return their result; multi-step games open a round and return nil until
// a later ResolveChoice or Cashout settles it.
//
// Postcondition: on error nothing was debited.
func (s *Session) PlaceBet(game round.Game, bet decimal.Decimal, opts BetOptions) (*round.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := round.ValidateBet(bet); err != nil {
		return nil, err
	}
	switch game {
	case round.Coinflip:
		side, err := coinflip.ParseSide(opts.Choice)
		if err != nil {
			return nil, err
		}
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		fr := coinflip.Flip(bet, side, s.src)
		res := round.Result{Game: game, Outcome: round.Loss, Bet: bet, Payout: fr.Payout, State: fr}
		if fr.Won {
			res.Outcome = round.Win
			res.Multiplier = coinflip.PayoutMultiplier.InexactFloat64()
		}
		s.settle(res)
		return &res, nil

	case round.RPS:
		choice, err := rps.ParseChoice(opts.Choice)
		if err != nil {
			return nil, err
		}
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		rr := rps.Play(bet, choice, s.src)
		res := round.Result{Game: game, Outcome: rr.Outcome, Bet: bet, Payout: rr.Payout, State: rr}
		switch rr.Outcome {
		case round.Win:
			res.Multiplier = rps.PayoutMultiplier.InexactFloat64()
		case round.Push:
			res.Multiplier = 1
		}
		s.settle(res)
		return &res, nil

	case round.Slots:
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		sr := slots.Spin(bet, s.src)
		res := round.Result{Game: game, Outcome: round.Loss, Bet: bet, Payout: sr.Payout, State: sr}
		switch sr.Kind {
		case slots.Jackpot:
			res.Outcome = round.Win
			res.Multiplier = sr.Reels[0].Multiplier.InexactFloat64()
		case slots.Pair:
			res.Outcome = round.Win
			res.Multiplier = slots.PairMultiplier.InexactFloat64()
		}
		s.settle(res)
		return &res, nil

	case round.Crash:
		if !s.crashAttached {
			return nil, gameerr.ErrNoActiveRound
		}
		if err := s.crash.CheckBet(opts.AutoCashout); err != nil {
			return nil, err
		}
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		if err := s.crash.PlaceBet(bet, opts.AutoCashout); err != nil {
			s.credit(bet)
			return nil, err
		}
		s.emitBalance()
		return nil, nil

	case round.Blackjack:
		if s.blackjack.InRound() {
			return nil, gameerr.ErrRoundActive
		}
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		out, err := s.blackjack.Deal(bet, s.src)
		if err != nil {
			s.credit(bet)
			return nil, err
		}
		s.emitBalance()
		if out != nil {
			res := s.blackjackResult(*out)
			s.settle(res)
			return &res, nil
		}
		return nil, nil

	case round.Miner:
		bombs := opts.Bombs
		if bombs == 0 {
			bombs = s.settings.MinerBombs
		}
		if err := s.miner.CheckStart(bombs); err != nil {
			return nil, err
		}
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		if err := s.miner.Start(bet, bombs, s.src); err != nil {
			s.credit(bet)
			return nil, err
		}
		s.emitBalance()
		return nil, nil

	case round.Tower:
		if err := s.tower.CheckStart(); err != nil {
			return nil, err
		}
		if err := s.debit(bet); err != nil {
			return nil, err
		}
		if err := s.tower.Start(bet, s.src); err != nil {
			s.credit(bet)
			return nil, err
		}
		s.emitBalance()
		return nil, nil
	}
	return nil, gameerr.Validationf(gameerr.ErrUnknownGame, "%q", game)
}

// ResolveChoice plays a step of a multi-step round: hit, stand or double in
// blackjack, a cell index in miner, a column index in tower.
//
// Postcondition: returns the result when the step ended the round, nil
// while it continues.
func (s *Session) ResolveChoice(game round.Game, choice string) (*round.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch game {
	case round.Blackjack:
		return s.blackjackChoice(choice)

	case round.Miner:
		idx, err := parseIndex(choice)
		if err != nil {
			return nil, err
		}
		out, err := s.miner.Reveal(idx)
		if err != nil || out == nil {
			return nil, err
		}
		res := minerResult(*out)
		s.settle(res)
		return &res, nil

	case round.Tower:
		col, err := parseIndex(choice)
		if err != nil {
			return nil, err
		}
		out, err := s.tower.Pick(col)
		if err != nil || out == nil {
			return nil, err
		}
		res := towerResult(*out)
		s.settle(res)
		return &res, nil

	case round.Coinflip, round.RPS, round.Slots, round.Crash:
		return nil, gameerr.Validationf(gameerr.ErrInvalidChoice, "%s has no in-round choices", game)
	}
	return nil, gameerr.Validationf(gameerr.ErrUnknownGame, "%q", game)
}

func (s *Session) blackjackChoice(choice string) (*round.Result, error) {
	var (
		out *blackjack.Outcome
		err error
	)
	switch choice {
	case ChoiceHit:
		out, err = s.blackjack.Hit()
	case ChoiceStand:
		var o blackjack.Outcome
		if o, err = s.blackjack.Stand(); err == nil {
			out = &o
		}
	case ChoiceDouble:
		if !s.blackjack.CanDouble() {
			return nil, gameerr.ErrNoActiveRound
		}
		extra := s.blackjack.Stake()
		if err := s.debit(extra); err != nil {
			return nil, err
		}
		var o blackjack.Outcome
		if o, err = s.blackjack.Double(); err != nil {
			s.credit(extra)
		} else {
			out = &o
		}
	default:
		return nil, gameerr.Validationf(gameerr.ErrInvalidChoice, "blackjack choice %q", choice)
	}
	if err != nil || out == nil {
		return nil, err
	}
	res := s.blackjackResult(*out)
	s.settle(res)
	return &res, nil
}

// Cashout settles a crash, miner or tower round at its current multiplier.
func (s *Session) Cashout(game round.Game) (*round.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch game {
	case round.Crash:
		c, err := s.crash.Cashout()
		if err != nil {
			return nil, err
		}
		res := crashResult(c, s.crash.Snapshot())
		s.settle(res)
		return &res, nil
	case round.Miner:
		out, err := s.miner.Cashout()
		if err != nil {
			return nil, err
		}
		res := minerResult(out)
		s.settle(res)
		return &res, nil
	case round.Tower:
		out, err := s.tower.Cashout()
		if err != nil {
			return nil, err
		}
		res := towerResult(out)
		s.settle(res)
		return &res, nil
	case round.Coinflip, round.RPS, round.Slots, round.Blackjack:
		return nil, gameerr.Validationf(gameerr.ErrInvalidChoice, "%s cannot cash out", game)
	}
	return nil, gameerr.Validationf(gameerr.ErrUnknownGame, "%q", game)
}

func parseIndex(choice string) (int, error) {
	n, err := strconv.Atoi(choice)
	if err != nil {
		return 0, gameerr.Validationf(gameerr.ErrInvalidChoice, "%q is not an index", choice)
	}
	return n, nil
}

func (s *Session) blackjackResult(out blackjack.Outcome) round.Result {
	res := round.Result{
		Game:    round.Blackjack,
		Outcome: out.Result,
		Bet:     out.Stake,
		Payout:  out.Payout,
		State: struct {
			blackjack.Outcome
			Table blackjack.State `json:"table"`
		}{out, s.blackjack.Snapshot()},
	}
	if out.Stake.IsPositive() {
		res.Multiplier = out.Payout.Div(out.Stake).InexactFloat64()
	}
	return res
}

func minerResult(out miner.Outcome) round.Result {
	res := round.Result{Game: round.Miner, Outcome: out.Result, Bet: out.Bet, Payout: out.Payout, State: out}
	if out.Result == round.Win {
		res.Multiplier = out.Multiplier
	}
	return res
}

func towerResult(out tower.Outcome) round.Result {
	res := round.Result{Game: round.Tower, Outcome: out.Result, Bet: out.Bet, Payout: out.Payout, State: out}
	if out.Result == round.Win {
		res.Multiplier = float64(out.Multiplier)
	}
	return res
}

func crashResult(c crash.Cashout, st crash.State) round.Result {
	return round.Result{
		Game:       round.Crash,
		Outcome:    round.Win,
		Bet:        c.Bet,
		Payout:     c.Payout,
		Multiplier: c.Multiplier,
		State: struct {
			crash.Cashout
			Table crash.State `json:"table"`
		}{c, st},
	}
}
