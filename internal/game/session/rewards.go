package session

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/shop"
)

// ClaimAchievement credits the reward of an unlocked, unclaimed achievement.
func (s *Session) ClaimAchievement(id string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reward, err := s.content.Tracker.ClaimAchievement(s.progress, id)
	if err != nil {
		return decimal.Zero, err
	}
	s.credit(reward)
	s.emitBalance()
	s.evaluateAchievements()
	return reward, nil
}

// ClaimTask credits the reward of a completed, unclaimed daily task.
func (s *Session) ClaimTask(id string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollTasks()
	reward, err := s.content.Tracker.ClaimTask(s.progress, id)
	if err != nil {
		return decimal.Zero, err
	}
	s.credit(reward)
	s.emitBalance()
	s.evaluateAchievements()
	return reward, nil
}

// BuyOffer purchases a shop offer.
func (s *Session) BuyOffer(id string) (shop.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	r, err := s.content.Shop.Buy(id, s.ledger, s.inv, now)
	if err != nil {
		return shop.Receipt{}, err
	}
	s.purchases = append(s.purchases, shop.Purchase{OfferID: id, At: now})
	if r.Item != nil {
		s.history.Gain(&r.Item.Item, inventory.SourceShop, now)
		s.emit(event.ItemsAwarded, event.Items{Source: inventory.SourceShop, Entries: []inventory.Entry{*r.Item}})
	}
	s.logger.Info("shop purchase", zap.String("offer", id))
	s.emitBalance()
	s.evaluateAchievements()
	return r, nil
}

// ResetDailyTasks clears every task's progress and stamps today's date.
func (s *Session) ResetDailyTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Tracker.ResetTasks(s.progress)
	s.tasksDay = s.settings.day(s.clock.Now())
}

// rollTasks resets tasks when the profile was last reset on an earlier day,
// covering players who were offline when the daily job ran.
//
// Precondition: s.mu is held.
func (s *Session) rollTasks() {
	today := s.settings.day(s.clock.Now())
	if s.tasksDay == today {
		return
	}
	s.content.Tracker.ResetTasks(s.progress)
	s.tasksDay = today
}
