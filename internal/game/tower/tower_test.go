package tower_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/tower"
)

var bet = decimal.NewFromInt(10)

// left bombs everywhere: column 1 is always safe.
var leftBombs = [tower.Rows]int{0, 0, 0, 0, 0}

func TestClearThreeRowsThenCashout(t *testing.T) {
	g := tower.New()
	require.NoError(t, g.StartWithBombs(bet, leftBombs))
	for i := 0; i < 3; i++ {
		out, err := g.Pick(1)
		require.NoError(t, err)
		require.Nil(t, out)
	}
	out, err := g.Cashout()
	require.NoError(t, err)
	assert.Equal(t, round.Win, out.Result)
	assert.Equal(t, int64(8), out.Multiplier)
	assert.Equal(t, "80", out.Payout.String())
}

func TestBombAtRowZeroPaysNothing(t *testing.T) {
	g := tower.New()
	require.NoError(t, g.StartWithBombs(bet, leftBombs))
	out, err := g.Pick(0)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, round.Loss, out.Result)
	assert.True(t, out.Payout.IsZero())
	assert.False(t, g.Active())
	assert.Equal(t, leftBombs[:], g.Snapshot().BombColumns)
}

func TestFullClimbPaysThirtyTwo(t *testing.T) {
	g := tower.New()
	require.NoError(t, g.StartWithBombs(bet, [tower.Rows]int{1, 0, 1, 0, 1}))
	var out *tower.Outcome
	for _, col := range []int{0, 1, 0, 1, 0} {
		var err error
		out, err = g.Pick(col)
		require.NoError(t, err)
	}
	require.NotNil(t, out)
	assert.Equal(t, int64(32), out.Multiplier)
	assert.Equal(t, "320", out.Payout.String())
	assert.False(t, g.Active())
}

func TestCashoutBeforeClearRejected(t *testing.T) {
	g := tower.New()
	require.NoError(t, g.StartWithBombs(bet, leftBombs))
	_, err := g.Cashout()
	assert.ErrorIs(t, err, tower.ErrNothingCleared)
	assert.True(t, g.Active())
}

func TestPickValidation(t *testing.T) {
	g := tower.New()
	_, err := g.Pick(0)
	assert.ErrorIs(t, err, gameerr.ErrNoActiveRound)

	require.NoError(t, g.StartWithBombs(bet, leftBombs))
	_, err = g.Pick(2)
	assert.ErrorIs(t, err, gameerr.ErrInvalidChoice)
	assert.ErrorIs(t, g.StartWithBombs(bet, leftBombs), gameerr.ErrRoundActive)
}

func TestSnapshotHidesBombsWhileActive(t *testing.T) {
	g := tower.New()
	require.NoError(t, g.Start(bet, rng.NewSequence(0.1, 0.6, 0.1, 0.6, 0.1)))
	assert.Nil(t, g.Snapshot().BombColumns)
}

func TestPayoutsStrictlyIncrease(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, tower.Rows-1).Draw(rt, "n")
		if tower.Multiplier(n+1) <= tower.Multiplier(n) {
			rt.Fatalf("multiplier(%d) not above multiplier(%d)", n+1, n)
		}
	})
}
