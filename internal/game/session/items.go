package session

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/loot"
	"github.com/cory-johannsen/starcase/internal/game/progress"
	"github.com/cory-johannsen/starcase/internal/game/upgrade"
)

// OpenCase buys quantity units of tier and awards one item per unit.
//
// Postcondition: on error nothing was debited or awarded.
func (s *Session) OpenCase(tierID string, quantity int) ([]inventory.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tier, err := s.content.Tiers.Tier(tierID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 || (s.settings.MaxCaseQuantity > 0 && quantity > s.settings.MaxCaseQuantity) {
		return nil, gameerr.Validationf(gameerr.ErrValidation, "case quantity %d outside 1-%d", quantity, s.settings.MaxCaseQuantity)
	}
	cost := tier.Price.Mul(decimal.NewFromInt(int64(quantity)))
	if err := s.debit(cost); err != nil {
		return nil, err
	}

	drops, err := loot.Open(tier, quantity, s.src)
	if err != nil {
		// Open only rejects quantity, which was checked above.
		s.credit(cost)
		return nil, err
	}
	now := s.clock.Now()
	entries := make([]inventory.Entry, 0, len(drops))
	values := make([]decimal.Decimal, 0, len(drops))
	for _, d := range drops {
		if d.Fallback {
			s.logger.Warn("case roll fell past the weight table",
				zap.String("tier", tier.ID), zap.Float64("roll", d.Roll), zap.String("item", d.Item.ID))
		}
		e := s.inv.Add(d.Item, now)
		s.history.Gain(d.Item, inventory.SourceCase, now)
		values = append(values, d.Item.Value)
		entries = append(entries, e)
	}
	s.stats.RecordOpening(values...)

	s.emit(event.ItemsAwarded, event.Items{Source: inventory.SourceCase, Entries: entries})
	s.advanceTasks(progress.CasesOpened, int64(quantity))
	s.addExperience(int64(xpPerCase * quantity))
	s.emitBalance()
	s.evaluateAchievements()
	return entries, nil
}

// SellItem converts an owned entry into stars at its item value.
func (s *Session) SellItem(instanceID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.inv.Remove(instanceID)
	if err != nil {
		return decimal.Zero, err
	}
	if s.upgradeSource != nil && s.upgradeSource.InstanceID == instanceID {
		s.upgradeSource = nil
	}
	s.credit(e.Item.Value)
	s.history.Loss(&e.Item, inventory.SourceSell, s.clock.Now())
	s.emitBalance()
	s.evaluateAchievements()
	return e.Item.Value, nil
}

// PickUpgradeSource selects the owned entry to stake on an upgrade.
//
// Postcondition: returns the priced attempt once a target is also selected.
func (s *Session) PickUpgradeSource(instanceID string) (*upgrade.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.inv.Get(instanceID)
	if !ok {
		return nil, inventory.ErrEntryNotFound
	}
	s.upgradeSource = &e
	return s.pricedAttempt(), nil
}

// PickUpgradeTarget selects the catalog item to aim for.
func (s *Session) PickUpgradeTarget(itemID string) (*upgrade.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.content.Items.Item(itemID)
	if !ok {
		return nil, gameerr.Validationf(gameerr.ErrUnknownItem, "%q", itemID)
	}
	s.upgradeTarget = it
	return s.pricedAttempt(), nil
}

func (s *Session) pricedAttempt() *upgrade.Attempt {
	if s.upgradeSource == nil || s.upgradeTarget == nil {
		return nil
	}
	a := upgrade.NewAttempt(*s.upgradeSource, s.upgradeTarget, s.settings.UpgradeMaxChance)
	return &a
}

// UpgradeResult is a rolled upgrade.
type UpgradeResult struct {
	Attempt upgrade.Attempt  `json:"attempt"`
	Success bool             `json:"success"`
	Roll    float64          `json:"roll"`
	Awarded *inventory.Entry `json:"awarded,omitempty"`
}

// ConfirmUpgrade rolls the selected attempt. The source entry is consumed
// either way; on success a fresh target entry is awarded.
func (s *Session) ConfirmUpgrade() (UpgradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.pricedAttempt()
	if a == nil {
		return UpgradeResult{}, gameerr.Validationf(gameerr.ErrInvalidChoice, "select an upgrade source and target first")
	}
	if _, err := s.inv.Remove(a.Source.InstanceID); err != nil {
		s.upgradeSource = nil
		return UpgradeResult{}, err
	}
	s.upgradeSource = nil

	ok, r := upgrade.Roll(a.Chance, s.src)
	res := UpgradeResult{Attempt: *a, Success: ok, Roll: r}
	now := s.clock.Now()
	if ok {
		e := s.inv.Add(a.Target, now)
		res.Awarded = &e
		s.history.Gain(a.Target, inventory.SourceUpgrade, now)
		s.emit(event.ItemsAwarded, event.Items{Source: inventory.SourceUpgrade, Entries: []inventory.Entry{e}})
	} else {
		s.history.Loss(&a.Source.Item, inventory.SourceUpgrade, now)
	}
	s.logger.Info("upgrade rolled",
		zap.String("source", a.Source.Item.ID),
		zap.String("target", a.Target.ID),
		zap.Float64("chance", a.Chance),
		zap.Bool("success", ok),
	)
	s.addExperience(xpUpgrade)
	s.emitBalance()
	s.evaluateAchievements()
	return res, nil
}
