package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/session"
	"github.com/cory-johannsen/starcase/internal/storage/memory"
)

func TestStore_LoadMissing(t *testing.T) {
	s := memory.NewStore()
	_, err := s.Load(context.Background(), "nobody")
	assert.True(t, errors.Is(err, session.ErrProfileNotFound))
}

func TestStore_SaveLoadIsolated(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	snap := &session.Snapshot{
		Version: session.SnapshotVersion,
		Player:  "p1",
		Ledger:  economy.State{Balance: decimal.NewFromInt(1250), Level: 1, ExperienceToNext: 1000},
	}
	require.NoError(t, s.Save(ctx, "p1", snap))
	snap.Ledger.Balance = decimal.Zero

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "1250", got.Ledger.Balance.String())
	assert.Equal(t, 1, s.Len())
}
