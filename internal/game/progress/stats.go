// Package progress tracks player statistics, achievements and daily tasks.
package progress

import (
	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/scripting"
)

// GameStats aggregates the rounds played in one game.
type GameStats struct {
	Played         int64   `json:"played"`
	Wins           int64   `json:"wins"`
	Draws          int64   `json:"draws"`
	BestMultiplier float64 `json:"best_multiplier"`
}

// Stats is the player's lifetime record.
type Stats struct {
	TotalOpened      int64                     `json:"total_opened"`
	TotalWon         decimal.Decimal           `json:"total_won"`
	BiggestWin       decimal.Decimal           `json:"biggest_win"`
	TotalGamesPlayed int64                     `json:"total_games_played"`
	Games            map[round.Game]*GameStats `json:"games"`
}

// NewStats returns zeroed stats with an entry for every game.
func NewStats() *Stats {
	s := &Stats{}
	s.ensure()
	return s
}

func (s *Stats) ensure() {
	if s.Games == nil {
		s.Games = make(map[round.Game]*GameStats, len(round.Games))
	}
	for _, g := range round.Games {
		if s.Games[g] == nil {
			s.Games[g] = &GameStats{}
		}
	}
}

// RecordOpening counts one opening of len(values) case units. BiggestWin
// compares the opening's total, not the single best item.
func (s *Stats) RecordOpening(values ...decimal.Decimal) {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	s.TotalOpened += int64(len(values))
	s.TotalWon = s.TotalWon.Add(total)
	if total.GreaterThan(s.BiggestWin) {
		s.BiggestWin = total
	}
}

// RecordRound counts one resolved game round.
func (s *Stats) RecordRound(res round.Result) {
	s.ensure()
	s.TotalGamesPlayed++
	gs := s.Games[res.Game]
	if gs == nil {
		gs = &GameStats{}
		s.Games[res.Game] = gs
	}
	gs.Played++
	switch res.Outcome {
	case round.Win:
		gs.Wins++
		if res.Multiplier > gs.BestMultiplier {
			gs.BestMultiplier = res.Multiplier
		}
	case round.Push:
		gs.Draws++
	}
}

// Wins returns the number of winning rounds across all games.
func (s *Stats) Wins() int64 {
	var n int64
	for _, gs := range s.Games {
		n += gs.Wins
	}
	return n
}

// Profile carries ledger-side values predicates may reference.
type Profile struct {
	Balance       decimal.Decimal
	Gems          int64
	Level         int
	InventorySize int
}

// Facts flattens stats and profile into the table predicates read as `s`.
func (s *Stats) Facts(p Profile) scripting.Facts {
	s.ensure()
	f := scripting.Facts{
		"cases_opened":   float64(s.TotalOpened),
		"total_won":      s.TotalWon.InexactFloat64(),
		"biggest_win":    s.BiggestWin.InexactFloat64(),
		"games_played":   float64(s.TotalGamesPlayed),
		"games_won":      float64(s.Wins()),
		"balance":        p.Balance.InexactFloat64(),
		"gems":           float64(p.Gems),
		"level":          float64(p.Level),
		"inventory_size": float64(p.InventorySize),
	}
	for g, gs := range s.Games {
		f[string(g)+"_played"] = float64(gs.Played)
		f[string(g)+"_wins"] = float64(gs.Wins)
		f[string(g)+"_best_multiplier"] = gs.BestMultiplier
	}
	return f
}

// Clone returns a deep copy.
func (s *Stats) Clone() *Stats {
	c := *s
	c.Games = make(map[round.Game]*GameStats, len(s.Games))
	for g, gs := range s.Games {
		v := *gs
		c.Games[g] = &v
	}
	return &c
}
