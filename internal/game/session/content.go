// Package session orchestrates one player's casino profile: it validates
// intents, moves money through the ledger, drives the game engines and
// publishes the resulting events.
package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/loot"
	"github.com/cory-johannsen/starcase/internal/game/miner"
	"github.com/cory-johannsen/starcase/internal/game/progress"
	"github.com/cory-johannsen/starcase/internal/game/shop"
	"github.com/cory-johannsen/starcase/internal/game/upgrade"
)

// Settings are the tunables shared by every session.
type Settings struct {
	Economy          economy.Settings
	LevelUpBonus     decimal.Decimal
	UpgradeMaxChance float64
	MinerBombs       int
	MaxCaseQuantity  int
	CrashTick        time.Duration
	CrashCooldown    time.Duration
	// Location decides where a "day" starts for daily tasks.
	Location *time.Location
}

// DefaultSettings returns the stock tunables.
func DefaultSettings() Settings {
	return Settings{
		Economy:          economy.DefaultSettings(),
		LevelUpBonus:     decimal.NewFromInt(100),
		UpgradeMaxChance: upgrade.DefaultMaxChance,
		MinerBombs:       miner.DefaultBombs,
		MaxCaseQuantity:  10,
		CrashTick:        100 * time.Millisecond,
		CrashCooldown:    3 * time.Second,
		Location:         time.UTC,
	}
}

// day returns the calendar day t falls on in the settings' location.
func (s Settings) day(t time.Time) string {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

// Content is the immutable catalog every session reads.
type Content struct {
	Items   *inventory.Catalog
	Tiers   *loot.Set
	Tracker *progress.Tracker
	Shop    *shop.Catalog
}

// Close releases the tracker's predicate state.
func (c *Content) Close() {
	if c.Tracker != nil {
		c.Tracker.Close()
	}
}

// LoadContent reads items.yaml, cases.yaml, achievements.yaml, tasks.yaml and
// shop.yaml from dir.
//
// Postcondition: any inconsistency is returned as a configuration error.
func LoadContent(dir string, logger *zap.Logger) (*Content, error) {
	items, err := inventory.LoadItems(filepath.Join(dir, "items.yaml"))
	if err != nil {
		return nil, err
	}
	catalog, err := inventory.BuildCatalog(items)
	if err != nil {
		return nil, fmt.Errorf("building item catalog: %w", err)
	}
	tiers, err := loot.LoadTiers(filepath.Join(dir, "cases.yaml"), catalog)
	if err != nil {
		return nil, err
	}
	achievements, err := progress.LoadAchievements(filepath.Join(dir, "achievements.yaml"))
	if err != nil {
		return nil, err
	}
	tasks, err := progress.LoadTasks(filepath.Join(dir, "tasks.yaml"))
	if err != nil {
		return nil, err
	}
	tracker, err := progress.NewTracker(logger, achievements, tasks)
	if err != nil {
		return nil, err
	}
	offers, err := shop.LoadCatalog(filepath.Join(dir, "shop.yaml"), catalog)
	if err != nil {
		tracker.Close()
		return nil, err
	}
	logger.Info("content loaded",
		zap.Int("items", catalog.Len()),
		zap.Int("cases", len(tiers.All())),
		zap.Int("achievements", len(achievements)),
		zap.Int("tasks", len(tasks)),
		zap.Int("offers", len(offers.Offers())),
	)
	return &Content{Items: catalog, Tiers: tiers, Tracker: tracker, Shop: offers}, nil
}
