// Package main estimates the return to player of every game by Monte Carlo
// simulation against the real session code and a seeded RNG.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/config"
	"github.com/cory-johannsen/starcase/internal/game/clock"
	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/session"
	"github.com/cory-johannsen/starcase/internal/observability"
)

func main() {
	start := time.Now()
	contentDir := flag.String("content", "content", "path to the content directory")
	rounds := flag.Int("rounds", 100_000, "rounds per game")
	seed := flag.Uint64("seed", 1, "RNG seed")
	bet := flag.Int64("bet", 100, "stake per round")
	strategy := Strategy{}
	flag.IntVar(&strategy.MinerReveals, "miner-reveals", 3, "cells revealed before a miner cashout")
	flag.IntVar(&strategy.TowerRows, "tower-rows", 2, "rows climbed before a tower cashout")
	flag.Float64Var(&strategy.CrashTarget, "crash-target", 2.0, "crash cashout multiplier")
	flag.IntVar(&strategy.BlackjackStandOn, "blackjack-stand", 17, "player stands at or above this score")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger, _, err := observability.NewLogger(config.LoggingConfig{Level: *level, Format: "console"}, "rtpsim")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	content, err := session.LoadContent(*contentDir, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer content.Close()

	sim := NewSimulator(content, rng.NewSeededSource(*seed), strategy, logger)
	report, err := sim.Run(*rounds, decimal.NewFromInt(*bet))
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	report.Write(os.Stdout)
	logger.Info("simulation complete", zap.Duration("elapsed", time.Since(start)))
}

// Strategy fixes the player's decisions in multi-step games.
type Strategy struct {
	MinerReveals     int
	TowerRows        int
	CrashTarget      float64
	BlackjackStandOn int
}

// Tally accumulates one game's stakes and returns.
type Tally struct {
	Rounds int
	Wins   int
	Staked decimal.Decimal
	Paid   decimal.Decimal
}

// RTP returns paid over staked.
func (t Tally) RTP() float64 {
	if t.Staked.IsZero() {
		return 0
	}
	return t.Paid.Div(t.Staked).InexactFloat64()
}

// Report is the per-game result of a run.
type Report map[string]*Tally

func (r Report) add(game string, staked, paid decimal.Decimal, won bool) {
	t := r[game]
	if t == nil {
		t = &Tally{}
		r[game] = t
	}
	t.Rounds++
	if won {
		t.Wins++
	}
	t.Staked = t.Staked.Add(staked)
	t.Paid = t.Paid.Add(paid)
}

// Write prints the report as an aligned table.
func (r Report) Write(out io.Writer) {
	games := make([]string, 0, len(r))
	for g := range r {
		games = append(games, g)
	}
	sort.Strings(games)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "game\trounds\twin rate\tstaked\tpaid\tRTP\t")
	for _, g := range games {
		t := r[g]
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%s\t%s\t%.4f\t\n",
			g, t.Rounds, float64(t.Wins)/float64(t.Rounds), t.Staked, t.Paid, t.RTP())
	}
	_ = w.Flush()
}

// Simulator plays rounds through a session with unlimited funds.
type Simulator struct {
	content  *session.Content
	src      rng.Source
	strategy Strategy
	logger   *zap.Logger
}

// NewSimulator creates a Simulator.
func NewSimulator(content *session.Content, src rng.Source, strategy Strategy, logger *zap.Logger) *Simulator {
	return &Simulator{content: content, src: src, strategy: strategy, logger: logger}
}

// Run plays rounds of every game at stake bet plus the same number of case
// openings per tier.
func (s *Simulator) Run(rounds int, bet decimal.Decimal) (Report, error) {
	settings := session.DefaultSettings()
	settings.Economy.StartingBalance = decimal.NewFromInt(1).Shift(15)
	report := Report{}
	sink := event.SinkFunc(func(ev event.Event) {
		if ev.Kind == event.RoundResolved {
			res := ev.Payload.(round.Result)
			report.add(string(res.Game), res.Bet, res.Payout, res.Outcome == round.Win)
		}
	})
	sess := session.New("rtpsim", s.content, settings, session.Options{
		Clock:  clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Source: s.src,
		Sink:   sink,
		Logger: s.logger,
	})
	defer sess.Close()

	plays := []func() error{
		func() error {
			_, err := sess.PlaceBet(round.Coinflip, bet, session.BetOptions{Choice: "heads"})
			return err
		},
		func() error {
			_, err := sess.PlaceBet(round.RPS, bet, session.BetOptions{Choice: "rock"})
			return err
		},
		func() error {
			_, err := sess.PlaceBet(round.Slots, bet, session.BetOptions{})
			return err
		},
		func() error { return s.playBlackjack(sess, bet) },
		func() error { return s.playMiner(sess, bet) },
		func() error { return s.playTower(sess, bet) },
	}
	for _, play := range plays {
		for i := 0; i < rounds; i++ {
			if err := play(); err != nil {
				return nil, err
			}
		}
	}
	s.playCrash(report, rounds, bet)
	if err := s.openCases(sess, report, rounds); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Simulator) playBlackjack(sess *session.Session, bet decimal.Decimal) error {
	res, err := sess.PlaceBet(round.Blackjack, bet, session.BetOptions{})
	for err == nil && res == nil {
		choice := session.ChoiceStand
		if sess.View().Blackjack.PlayerScore < s.strategy.BlackjackStandOn {
			choice = session.ChoiceHit
		}
		res, err = sess.ResolveChoice(round.Blackjack, choice)
	}
	return err
}

func (s *Simulator) playMiner(sess *session.Session, bet decimal.Decimal) error {
	if _, err := sess.PlaceBet(round.Miner, bet, session.BetOptions{}); err != nil {
		return err
	}
	for cell := 0; cell < s.strategy.MinerReveals; cell++ {
		res, err := sess.ResolveChoice(round.Miner, fmt.Sprint(cell))
		if err != nil || res != nil {
			return err
		}
	}
	_, err := sess.Cashout(round.Miner)
	return err
}

func (s *Simulator) playTower(sess *session.Session, bet decimal.Decimal) error {
	if _, err := sess.PlaceBet(round.Tower, bet, session.BetOptions{}); err != nil {
		return err
	}
	for row := 0; row < s.strategy.TowerRows; row++ {
		res, err := sess.ResolveChoice(round.Tower, "0")
		if err != nil || res != nil {
			return err
		}
	}
	_, err := sess.Cashout(round.Tower)
	return err
}

// playCrash draws crash points directly; the session's timed loop would
// need a simulated clock per round for the same distribution.
func (s *Simulator) playCrash(report Report, rounds int, bet decimal.Decimal) {
	target := decimal.NewFromFloat(s.strategy.CrashTarget)
	for i := 0; i < rounds; i++ {
		paid := decimal.Zero
		won := crash.CrashPoint(s.src) >= s.strategy.CrashTarget
		if won {
			paid = round.FloorPayout(bet, target)
		}
		report.add(string(round.Crash), bet, paid, won)
	}
}

func (s *Simulator) openCases(sess *session.Session, report Report, rounds int) error {
	for _, tier := range s.content.Tiers.All() {
		for i := 0; i < rounds; i++ {
			entries, err := sess.OpenCase(tier.ID, 1)
			if err != nil {
				return err
			}
			value := entries[0].Item.Value
			if _, err := sess.SellItem(entries[0].InstanceID); err != nil {
				return err
			}
			report.add("case:"+tier.ID, tier.Price, value, value.GreaterThan(tier.Price))
		}
	}
	return nil
}
