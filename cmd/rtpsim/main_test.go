package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/session"
)

func TestSimulator_CoversEveryGame(t *testing.T) {
	content, err := session.LoadContent("../../content", zap.NewNop())
	require.NoError(t, err)
	defer content.Close()

	strategy := Strategy{MinerReveals: 2, TowerRows: 1, CrashTarget: 2, BlackjackStandOn: 17}
	sim := NewSimulator(content, rng.NewSeededSource(7), strategy, zap.NewNop())
	report, err := sim.Run(2000, decimal.NewFromInt(100))
	require.NoError(t, err)

	for _, g := range []string{"coinflip", "rps", "slots", "crash", "blackjack", "miner", "tower", "case:common"} {
		require.Contains(t, report, g)
		assert.Equal(t, 2000, report[g].Rounds, g)
	}
	// 0.485 × 1.9
	assert.InDelta(t, 0.9215, report["coinflip"].RTP(), 0.06)
	assert.InDelta(t, 0.5, float64(report["tower"].Wins)/2000, 0.05)

	var buf bytes.Buffer
	report.Write(&buf)
	assert.Contains(t, buf.String(), "blackjack")
}
