package session

import (
	"context"
	"errors"
	"time"

	"github.com/cory-johannsen/starcase/internal/game/blackjack"
	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/miner"
	"github.com/cory-johannsen/starcase/internal/game/progress"
	"github.com/cory-johannsen/starcase/internal/game/shop"
	"github.com/cory-johannsen/starcase/internal/game/tower"
	"github.com/cory-johannsen/starcase/internal/game/upgrade"
)

// SnapshotVersion is the current snapshot schema.
const SnapshotVersion = 1

// Snapshot is the persisted profile. In-flight rounds are never included.
type Snapshot struct {
	Version   int                `json:"version"`
	Player    string             `json:"player"`
	Ledger    economy.State      `json:"ledger"`
	Inventory []inventory.Entry  `json:"inventory"`
	History   []inventory.Record `json:"history"`
	Stats     *progress.Stats    `json:"stats"`
	Progress  *progress.Progress `json:"progress"`
	Purchases []shop.Purchase    `json:"purchases,omitempty"`
	TasksDay  string             `json:"tasks_day"`
	SavedAt   time.Time          `json:"saved_at"`
}

// ErrProfileNotFound is returned by Store.Load for an unknown player.
var ErrProfileNotFound = errors.New("profile not found")

// Store persists profile snapshots.
type Store interface {
	// Load returns the saved snapshot or ErrProfileNotFound.
	Load(ctx context.Context, player string) (*Snapshot, error)
	// Save replaces the player's snapshot.
	Save(ctx context.Context, player string, snap *Snapshot) error
}

// Snapshot captures the persistent profile.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		Player:    s.player,
		Ledger:    s.ledger.State(),
		Inventory: s.inv.Entries(),
		History:   s.history.Records(),
		Stats:     s.stats.Clone(),
		Progress:  s.progress.Clone(),
		Purchases: append([]shop.Purchase(nil), s.purchases...),
		TasksDay:  s.tasksDay,
		SavedAt:   s.clock.Now(),
	}
}

// Restore rebuilds a session from snap. Achievements and tasks added to the
// content since the snapshot was taken start locked.
func Restore(snap *Snapshot, content *Content, settings Settings, opts Options) *Session {
	s := newSession(snap.Player, content, settings, opts)
	s.ledger = economy.Restore(snap.Ledger, settings.Economy)
	s.inv = inventory.FromEntries(snap.Inventory)
	s.history = inventory.HistoryFrom(snap.History)
	s.stats = snap.Stats
	if s.stats == nil {
		s.stats = progress.NewStats()
	}
	s.progress = content.Tracker.NewProgress()
	if snap.Progress != nil {
		for id, st := range snap.Progress.Achievements {
			if _, known := s.progress.Achievements[id]; known && st != nil {
				s.progress.Achievements[id] = st
			}
		}
		for id, st := range snap.Progress.Tasks {
			if _, known := s.progress.Tasks[id]; known && st != nil {
				s.progress.Tasks[id] = st
			}
		}
	}
	s.purchases = append([]shop.Purchase(nil), snap.Purchases...)
	s.tasksDay = snap.TasksDay
	return s
}

// View is the full player-visible state: the profile plus live game tables.
type View struct {
	*Snapshot
	Upgrade   *upgrade.Attempt `json:"upgrade,omitempty"`
	Blackjack blackjack.State  `json:"blackjack"`
	Miner     miner.State      `json:"miner"`
	Tower     tower.State      `json:"tower"`
	Crash     crash.State      `json:"crash"`
}

// View returns the player-visible state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollTasks()
	return View{
		Snapshot:  s.snapshot(),
		Upgrade:   s.pricedAttempt(),
		Blackjack: s.blackjack.Snapshot(),
		Miner:     s.miner.Snapshot(),
		Tower:     s.tower.Snapshot(),
		Crash:     s.crash.Snapshot(),
	}
}
