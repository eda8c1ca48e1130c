// Package event defines the outcome notifications the casino core emits and
// the fan-out used to deliver them to presentation clients.
package event

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/inventory"
)

// Kind names an event.
type Kind string

const (
	BalanceChanged      Kind = "balance_changed"
	ItemsAwarded        Kind = "items_awarded"
	RoundResolved       Kind = "round_resolved"
	AchievementUnlocked Kind = "achievement_unlocked"
	TaskCompleted       Kind = "task_completed"
	LevelUp             Kind = "level_up"
	InsufficientFunds   Kind = "insufficient_funds"
	CrashRoundStarted   Kind = "crash_round_started"
	CrashTick           Kind = "crash_tick"
	CrashCrashed        Kind = "crash_crashed"
)

// Event is one notification addressed to a player.
type Event struct {
	Kind    Kind      `json:"kind"`
	Player  string    `json:"player"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Balance is the payload of BalanceChanged.
type Balance struct {
	Balance          decimal.Decimal `json:"balance"`
	Gems             int64           `json:"gems"`
	Level            int             `json:"level"`
	Experience       int64           `json:"experience"`
	ExperienceToNext int64           `json:"experience_to_next"`
}

// Items is the payload of ItemsAwarded.
type Items struct {
	Source  inventory.Source  `json:"source"`
	Entries []inventory.Entry `json:"entries"`
}

// Reward is the payload of AchievementUnlocked and TaskCompleted.
type Reward struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Reward decimal.Decimal `json:"reward"`
}

// Level is the payload of LevelUp.
type Level struct {
	Level int             `json:"level"`
	Bonus decimal.Decimal `json:"bonus"`
}

// Shortfall is the payload of InsufficientFunds.
type Shortfall struct {
	Need decimal.Decimal `json:"need"`
	Have decimal.Decimal `json:"have"`
}

// Crash is the payload of the crash_* events. CrashPoint is set only on
// CrashCrashed.
type Crash struct {
	Multiplier float64   `json:"multiplier"`
	CrashPoint float64   `json:"crash_point,omitempty"`
	History    []float64 `json:"history,omitempty"`
}

// Sink receives events. Publish must not block for long; it is called with
// the owning session's lock held.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Publish(ev Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder keeps every published event. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

// Reset forgets the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
