package session

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// EnterCrash attaches the player to the crash table and starts a fresh
// round. A bet left riding from an earlier visit is forfeited first.
func (s *Session) EnterCrash() crash.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopCrashTimer()
	if lost := s.crash.Abandon(); lost != nil {
		s.forfeitCrash(*lost)
	}
	s.crashAttached = true
	s.startCrashRound()
	return s.crash.Snapshot()
}

// LeaveCrash detaches the player. The running round plays out to its crash
// point with auto-cashout still armed, but no further round is scheduled.
// During the cooldown the pending round is cancelled unless a bet is riding
// on it; that round still starts and settles the bet.
func (s *Session) LeaveCrash() crash.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crashAttached = false
	if s.crash.Phase() == crash.Crashed && !s.crash.HasBet() {
		s.stopCrashTimer()
	}
	return s.crash.Snapshot()
}

// stopCrashTimer cancels the pending tick or cooldown.
//
// Precondition: s.mu is held.
func (s *Session) stopCrashTimer() {
	s.crashGen++
	if s.crashTimer != nil {
		s.crashTimer.Stop()
		s.crashTimer = nil
	}
}

// armCrash schedules f after d. A callback from a superseded generation is
// ignored; a wall timer may already be waiting on the lock when stopped.
//
// Precondition: s.mu is held.
func (s *Session) armCrash(d time.Duration, f func()) {
	gen := s.crashGen
	s.crashTimer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.crashGen {
			return
		}
		s.crashTimer = nil
		f()
	})
}

// startCrashRound draws a new crash point and begins ticking.
//
// Precondition: s.mu is held.
func (s *Session) startCrashRound() {
	if err := s.crash.Start(s.clock.Now(), s.src); err != nil {
		s.logger.Error("starting crash round", zap.Error(err))
		return
	}
	st := s.crash.Snapshot()
	s.emit(event.CrashRoundStarted, event.Crash{Multiplier: st.Multiplier, History: st.History})
	s.armCrash(s.settings.CrashTick, s.crashTick)
}

// crashTick advances the running round. Auto-cashout settles before the
// crash check; after a crash the next round starts once the cooldown has
// passed, unless the player has left.
//
// Precondition: s.mu is held.
func (s *Session) crashTick() {
	res := s.crash.Tick(s.clock.Now())
	s.emit(event.CrashTick, event.Crash{Multiplier: res.Multiplier})
	if res.Cashout != nil {
		s.settle(crashResult(*res.Cashout, s.crash.Snapshot()))
	}
	if !res.Crashed {
		s.armCrash(s.settings.CrashTick, s.crashTick)
		return
	}

	s.emit(event.CrashCrashed, event.Crash{
		Multiplier: res.Multiplier,
		CrashPoint: res.CrashPoint,
		History:    s.crash.History(),
	})
	if res.Forfeited != nil {
		s.forfeitCrash(*res.Forfeited)
	}
	if s.crashAttached {
		s.armCrash(s.settings.CrashCooldown, s.startCrashRound)
	}
}

func (s *Session) forfeitCrash(bet crash.Bet) {
	s.settle(round.Result{
		Game:    round.Crash,
		Outcome: round.Loss,
		Bet:     bet.Amount,
		Payout:  decimal.Zero,
		State:   s.crash.Snapshot(),
	})
}
