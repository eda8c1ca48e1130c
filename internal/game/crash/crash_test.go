package crash_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
)

var t0 = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

// startAt starts g with a crash point of 1 + u in the lowest tier.
func startAt(t *testing.T, g *crash.Game, u float64) {
	t.Helper()
	require.NoError(t, g.Start(t0, rng.NewSequence(0.1, u)))
}

func TestCrashPoint_Tiers(t *testing.T) {
	assert.InDelta(t, 1.5, crash.CrashPoint(rng.NewSequence(0.2, 0.5)), 1e-9)
	assert.InDelta(t, 3.5, crash.CrashPoint(rng.NewSequence(0.6, 0.5)), 1e-9)
	assert.InDelta(t, 10.0, crash.CrashPoint(rng.NewSequence(0.9, 0.5)), 1e-9)
	assert.InDelta(t, 57.5, crash.CrashPoint(rng.NewSequence(0.97, 0.5)), 1e-9)
}

func TestCrashPoint_Bounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64Range(0, 0.9999999999).Draw(rt, "tier")
		b := rapid.Float64Range(0, 0.9999999999).Draw(rt, "u")
		p := crash.CrashPoint(rng.NewSequence(a, b))
		if p < 1 || p >= crash.MaxCrashPoint {
			rt.Fatalf("crash point %v outside [1, 100)", p)
		}
	})
}

func TestCrashPoint_TierFrequencies(t *testing.T) {
	src := rng.NewSeededSource(11)
	const n = 40_000
	var low, mid, high, top int
	for i := 0; i < n; i++ {
		switch p := crash.CrashPoint(src); {
		case p < 2:
			low++
		case p < 5:
			mid++
		case p < 15:
			high++
		default:
			top++
		}
	}
	assert.InDelta(t, 0.5, float64(low)/n, 0.01)
	assert.InDelta(t, 0.3, float64(mid)/n, 0.01)
	assert.InDelta(t, 0.15, float64(high)/n, 0.01)
	assert.InDelta(t, 0.05, float64(top)/n, 0.01)
}

func TestMultiplierIsLinear(t *testing.T) {
	assert.InDelta(t, 1.0, crash.MultiplierAt(0), 1e-12)
	assert.InDelta(t, 1.5, crash.MultiplierAt(5*time.Second), 1e-12)
	assert.InDelta(t, 2.0, crash.MultiplierAt(10*time.Second), 1e-12)
}

func TestStart_RejectsWhileRunning(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5)
	assert.ErrorIs(t, g.Start(t0, rng.NewSequence(0.1, 0.1)), gameerr.ErrRoundActive)
}

func TestPlaceBet(t *testing.T) {
	g := crash.New()
	assert.ErrorIs(t, g.PlaceBet(decimal.NewFromInt(10), 0), gameerr.ErrNoActiveRound)

	startAt(t, g, 0.5)
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(10), 0))
	assert.ErrorIs(t, g.PlaceBet(decimal.NewFromInt(10), 0), gameerr.ErrRoundActive)
	assert.True(t, g.HasBet())
}

func TestPlaceBet_InvalidAutoCashout(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5)
	assert.ErrorIs(t, g.PlaceBet(decimal.NewFromInt(10), 0.5), gameerr.ErrInvalidChoice)
	assert.False(t, g.HasBet())
}

func TestManualCashout(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5) // crash at 1.5
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(100), 0))

	res := g.Tick(at(3)) // 1.3
	assert.False(t, res.Crashed)
	c, err := g.Cashout()
	require.NoError(t, err)
	assert.Equal(t, "130", c.Payout.String())
	assert.False(t, c.Auto)
	assert.False(t, g.HasBet())

	_, err = g.Cashout()
	assert.ErrorIs(t, err, gameerr.ErrNoActiveRound)
}

func TestCashoutFloors(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.9)
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(7), 0))
	g.Tick(at(2.5)) // 1.25
	c, err := g.Cashout()
	require.NoError(t, err)
	assert.Equal(t, "8", c.Payout.String())
}

func TestAutoCashout(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.9) // crash at 1.9
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(100), 1.2))

	assert.Nil(t, g.Tick(at(1)).Cashout)
	res := g.Tick(at(2))
	require.NotNil(t, res.Cashout)
	assert.True(t, res.Cashout.Auto)
	assert.Equal(t, "120", res.Cashout.Payout.String())
	assert.False(t, res.Crashed)
}

func TestAutoCashoutWinsTieWithCrash(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5) // crash at 1.5
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(100), 1.5))

	res := g.Tick(at(5)) // 1.5 reaches both thresholds
	require.NotNil(t, res.Cashout)
	assert.Equal(t, "150", res.Cashout.Payout.String())
	assert.True(t, res.Crashed)
	assert.Nil(t, res.Forfeited)
}

func TestCrashForfeitsBet(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5)
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(100), 3))

	res := g.Tick(at(6))
	assert.True(t, res.Crashed)
	require.NotNil(t, res.Forfeited)
	assert.Equal(t, "100", res.Forfeited.Amount.String())
	assert.Equal(t, crash.Crashed, g.Phase())
	assert.InDelta(t, 1.5, g.Snapshot().CrashPoint, 1e-9)

	_, err := g.Cashout()
	assert.ErrorIs(t, err, gameerr.ErrNoActiveRound)
}

func TestCrashPointHiddenWhileRunning(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5)
	assert.Zero(t, g.Snapshot().CrashPoint)
}

func TestBetDuringCooldownRidesNextRound(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.0)
	g.Tick(at(1))
	require.Equal(t, crash.Crashed, g.Phase())

	require.NoError(t, g.PlaceBet(decimal.NewFromInt(10), 0))
	_, err := g.Cashout()
	assert.ErrorIs(t, err, gameerr.ErrNoActiveRound)

	require.NoError(t, g.Start(at(4), rng.NewSequence(0.1, 0.5)))
	g.Tick(at(6))
	c, err := g.Cashout()
	require.NoError(t, err)
	assert.Equal(t, "12", c.Payout.String())
}

func TestAbandon(t *testing.T) {
	g := crash.New()
	startAt(t, g, 0.5)
	require.NoError(t, g.PlaceBet(decimal.NewFromInt(10), 0))
	lost := g.Abandon()
	require.NotNil(t, lost)
	assert.Equal(t, crash.Idle, g.Phase())
	assert.False(t, g.HasBet())
}

func TestHistoryBoundedNewestFirst(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := crash.New()
		rounds := rapid.IntRange(1, 30).Draw(rt, "rounds")
		var points []float64
		now := t0
		for i := 0; i < rounds; i++ {
			u := rapid.Float64Range(0, 0.99).Draw(rt, "u")
			if err := g.Start(now, rng.NewSequence(0.1, u)); err != nil {
				rt.Fatal(err)
			}
			res := g.Tick(now.Add(20 * time.Second))
			if !res.Crashed {
				rt.Fatalf("round %d did not crash", i)
			}
			points = append(points, res.CrashPoint)
			now = now.Add(time.Minute)
		}
		h := g.History()
		if len(h) > crash.HistoryLimit {
			rt.Fatalf("history length %d", len(h))
		}
		for i, p := range h {
			if p != points[len(points)-1-i] {
				rt.Fatalf("history[%d] = %v, want %v", i, p, points[len(points)-1-i])
			}
		}
	})
}
