// Package economy holds the player's currency, gem and experience ledger.
package economy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// Settings seed a fresh ledger and shape the level curve.
type Settings struct {
	StartingBalance  decimal.Decimal
	StartingGems     int64
	ExperienceBase   int64
	ExperienceGrowth float64
}

// DefaultSettings returns the stock starting profile.
func DefaultSettings() Settings {
	return Settings{
		StartingBalance:  decimal.NewFromInt(1250),
		ExperienceBase:   1000,
		ExperienceGrowth: 1.5,
	}
}

// State is the serializable form of a Ledger.
type State struct {
	Balance          decimal.Decimal `json:"balance"`
	Gems             int64           `json:"gems"`
	Level            int             `json:"level"`
	Experience       int64           `json:"experience"`
	ExperienceToNext int64           `json:"experience_to_next"`
}

// Ledger tracks balance, gems, level and experience.
//
// Invariant: balance >= 0 and gems >= 0 at every committed state.
// Invariant: 0 <= experience < experienceToNext after every AddExperience.
// Not safe for concurrent use; the owning session serializes access.
type Ledger struct {
	state  State
	growth float64
}

// NewLedger returns a level-1 ledger seeded from s.
//
// Precondition: s.ExperienceBase >= 1 and s.ExperienceGrowth >= 1.
func NewLedger(s Settings) *Ledger {
	return &Ledger{
		state: State{
			Balance:          s.StartingBalance,
			Gems:             s.StartingGems,
			Level:            1,
			ExperienceToNext: s.ExperienceBase,
		},
		growth: s.ExperienceGrowth,
	}
}

// Restore rebuilds a ledger from a saved state.
func Restore(st State, s Settings) *Ledger {
	if st.Level < 1 {
		st.Level = 1
	}
	if st.ExperienceToNext < 1 {
		st.ExperienceToNext = s.ExperienceBase
	}
	return &Ledger{state: st, growth: s.ExperienceGrowth}
}

// State returns a copy of the ledger's current values.
func (l *Ledger) State() State { return l.state }

func (l *Ledger) Balance() decimal.Decimal { return l.state.Balance }
func (l *Ledger) Gems() int64              { return l.state.Gems }
func (l *Ledger) Level() int               { return l.state.Level }
func (l *Ledger) Experience() int64        { return l.state.Experience }
func (l *Ledger) ExperienceToNext() int64  { return l.state.ExperienceToNext }

// CanAfford reports whether amount can be debited.
func (l *Ledger) CanAfford(amount decimal.Decimal) bool {
	return !amount.GreaterThan(l.state.Balance)
}

// Credit adds amount to the balance.
//
// Precondition: amount >= 0.
func (l *Ledger) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("credit of negative amount %s", amount)
	}
	l.state.Balance = l.state.Balance.Add(amount)
	return nil
}

// Debit removes amount from the balance.
//
// Precondition: amount >= 0.
// Postcondition: on error the ledger is unchanged.
func (l *Ledger) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("debit of negative amount %s", amount)
	}
	if amount.GreaterThan(l.state.Balance) {
		return gameerr.Validationf(gameerr.ErrInsufficientFunds, "need %s, have %s", amount, l.state.Balance)
	}
	l.state.Balance = l.state.Balance.Sub(amount)
	return nil
}

// CreditGems adds n gems.
func (l *Ledger) CreditGems(n int64) error {
	if n < 0 {
		return fmt.Errorf("credit of negative gem amount %d", n)
	}
	l.state.Gems += n
	return nil
}

// DebitGems removes n gems.
//
// Postcondition: on error the ledger is unchanged.
func (l *Ledger) DebitGems(n int64) error {
	if n < 0 {
		return fmt.Errorf("debit of negative gem amount %d", n)
	}
	if n > l.state.Gems {
		return gameerr.Validationf(gameerr.ErrInsufficientFunds, "need %d gems, have %d", n, l.state.Gems)
	}
	l.state.Gems -= n
	return nil
}

// AddExperience adds n experience and applies every level-up it triggers.
// Each level-up subtracts the current threshold and grows the next one by the
// configured factor, floored.
//
// Precondition: n >= 0.
// Postcondition: returns the number of levels gained.
func (l *Ledger) AddExperience(n int64) int {
	if n <= 0 {
		return 0
	}
	l.state.Experience += n
	gained := 0
	for l.state.Experience >= l.state.ExperienceToNext {
		l.state.Experience -= l.state.ExperienceToNext
		l.state.Level++
		next := int64(math.Floor(float64(l.state.ExperienceToNext) * l.growth))
		if next < 1 {
			next = 1
		}
		l.state.ExperienceToNext = next
		gained++
	}
	return gained
}
