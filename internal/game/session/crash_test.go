package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// crashAt returns the two draws that produce crash point 1+frac.
func crashAt(frac float64) []float64 { return []float64{0.0, frac} }

func crashSeq(points ...float64) []float64 {
	var out []float64
	for _, p := range points {
		out = append(out, crashAt(p)...)
	}
	return out
}

func resolved(events []event.Event) []round.Result {
	var out []round.Result
	for _, ev := range events {
		if ev.Kind == event.RoundResolved {
			out = append(out, ev.Payload.(round.Result))
		}
	}
	return out
}

func TestCrash_BetRequiresTable(t *testing.T) {
	f := newFixture(t, seq(), DefaultSettings())
	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{})
	assert.True(t, errors.Is(err, gameerr.ErrNoActiveRound))
	assert.Equal(t, "1250", f.balance())
}

func TestCrash_AutoCashout(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.5, 0.5)...), DefaultSettings())
	st := f.sess.EnterCrash()
	assert.Equal(t, crash.Running, st.Phase)
	assert.Zero(t, st.CrashPoint, "crash point hidden while running")

	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{AutoCashout: 1.2})
	require.NoError(t, err)
	assert.Equal(t, "1150", f.balance())

	_, err = f.sess.PlaceBet(round.Crash, d(100), BetOptions{})
	assert.True(t, errors.Is(err, gameerr.ErrRoundActive))

	f.clock.Advance(2 * time.Second)
	results := resolved(f.events.Events())
	require.Len(t, results, 1)
	assert.Equal(t, round.Win, results[0].Outcome)
	assert.Equal(t, "120", results[0].Payout.String())
	assert.Equal(t, "1270", f.balance())

	f.clock.Advance(3 * time.Second)
	assert.Equal(t, crash.Crashed, f.sess.crashState().Phase)
	assert.Equal(t, []float64{1.5}, f.sess.crashState().History)
	assert.Contains(t, f.events.Kinds(), event.CrashCrashed)

	f.clock.Advance(3 * time.Second)
	assert.Equal(t, crash.Running, f.sess.crashState().Phase, "next round after cooldown")
}

func TestCrash_ManualCashout(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{})
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	res, err := f.sess.Cashout(round.Crash)
	require.NoError(t, err)
	assert.Equal(t, "110", res.Payout.String())
	assert.Equal(t, "1260", f.balance())

	_, err = f.sess.Cashout(round.Crash)
	assert.True(t, errors.Is(err, gameerr.ErrNoActiveRound))
}

func TestCrash_BetForfeitedOnCrash(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.5, 0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{})
	require.NoError(t, err)

	f.clock.Advance(5 * time.Second)
	results := resolved(f.events.Events())
	require.Len(t, results, 1)
	assert.Equal(t, round.Loss, results[0].Outcome)
	assert.Equal(t, "1150", f.balance())
}

func TestCrash_AutoCashoutWinsTieWithCrash(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.3)...), DefaultSettings())
	f.sess.EnterCrash()
	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{AutoCashout: 1.3})
	require.NoError(t, err)
	f.sess.LeaveCrash()

	f.clock.Advance(3 * time.Second)
	results := resolved(f.events.Events())
	require.Len(t, results, 1)
	assert.Equal(t, round.Win, results[0].Outcome)
	assert.Equal(t, "130", results[0].Payout.String())
	assert.Equal(t, crash.Crashed, f.sess.crashState().Phase)
}

func TestCrash_BetDuringCooldownRidesNextRound(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.1, 0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	f.clock.Advance(time.Second)
	require.Equal(t, crash.Crashed, f.sess.crashState().Phase)

	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{AutoCashout: 1.1})
	require.NoError(t, err)

	f.clock.Advance(3*time.Second + time.Second)
	results := resolved(f.events.Events())
	require.Len(t, results, 1)
	assert.Equal(t, "110", results[0].Payout.String())
}

func TestCrash_LeaveStopsScheduling(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	f.sess.LeaveCrash()

	f.clock.Advance(10 * time.Second)
	assert.Equal(t, crash.Crashed, f.sess.crashState().Phase)
	assert.Equal(t, 0, f.clock.Pending())

	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{})
	assert.True(t, errors.Is(err, gameerr.ErrNoActiveRound))
}

func TestCrash_LeaveDuringCooldownCancelsNextRound(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.1)...), DefaultSettings())
	f.sess.EnterCrash()
	f.clock.Advance(time.Second)
	require.Equal(t, crash.Crashed, f.sess.crashState().Phase)
	require.Equal(t, 1, f.clock.Pending())

	f.sess.LeaveCrash()
	assert.Equal(t, 0, f.clock.Pending())

	f.events.Reset()
	f.clock.Advance(10 * time.Second)
	assert.Empty(t, f.events.Events())
	assert.Equal(t, 1, f.sess.crashState().Round)
}

func TestCrash_LeaveWithRidingBetPlaysItOut(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.1, 0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	f.clock.Advance(time.Second)
	require.Equal(t, crash.Crashed, f.sess.crashState().Phase)

	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{AutoCashout: 1.1})
	require.NoError(t, err)
	f.sess.LeaveCrash()

	f.clock.Advance(4 * time.Second)
	results := resolved(f.events.Events())
	require.Len(t, results, 1)
	assert.Equal(t, "110", results[0].Payout.String())

	f.clock.Advance(10 * time.Second)
	assert.Equal(t, crash.Crashed, f.sess.crashState().Phase)
	assert.Equal(t, 2, f.sess.crashState().Round)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestCrash_ReenterForfeitsRidingBet(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.9, 0.9)...), DefaultSettings())
	f.sess.EnterCrash()
	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{})
	require.NoError(t, err)
	f.sess.LeaveCrash()

	st := f.sess.EnterCrash()
	assert.Equal(t, 2, st.Round)
	assert.Nil(t, st.Bet)
	results := resolved(f.events.Events())
	require.Len(t, results, 1)
	assert.Equal(t, round.Loss, results[0].Outcome)
	assert.Equal(t, "1150", f.balance())
}

func TestCrash_CloseStopsLoop(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	f.sess.Close()
	f.events.Reset()
	f.clock.Advance(time.Second)
	assert.Empty(t, f.events.Events())
}

func TestCrash_InvalidAutoCashout(t *testing.T) {
	f := newFixture(t, seq(crashSeq(0.5)...), DefaultSettings())
	f.sess.EnterCrash()
	_, err := f.sess.PlaceBet(round.Crash, d(100), BetOptions{AutoCashout: 0.5})
	assert.True(t, errors.Is(err, gameerr.ErrInvalidChoice))
	assert.Equal(t, "1250", f.balance())
}
