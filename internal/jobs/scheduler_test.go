package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMaintainer struct {
	resets atomic.Int32
	saves  atomic.Int32
	err    error
}

func (f *fakeMaintainer) ResetDailyTasks(context.Context) (int, error) {
	f.resets.Add(1)
	return 1, f.err
}

func (f *fakeMaintainer) SaveAll(context.Context) (int, error) {
	f.saves.Add(1)
	return 1, nil
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.UTC, time.Second, zap.NewNop())
	err := s.Add("broken", "every day", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 0, s.Len())
}

func TestScheduleCasino_RunsJobs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewScheduler(time.UTC, time.Second, zap.New(core))
	m := &fakeMaintainer{err: errors.New("store down")}
	require.NoError(t, ScheduleCasino(s, m, "@every 1s", "@every 1s"))
	assert.Equal(t, 2, s.Len())

	s.Start()
	require.Eventually(t, func() bool {
		return m.resets.Load() > 0 && m.saves.Load() > 0
	}, 3*time.Second, 20*time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, logs.FilterMessage("job failed").FilterField(zap.String("job", "daily_reset")).Len(), 1)
	assert.GreaterOrEqual(t, logs.FilterMessage("job finished").FilterField(zap.String("job", "flush")).Len(), 1)
}

func TestScheduleCasino_BadFlushSpec(t *testing.T) {
	s := NewScheduler(time.UTC, time.Second, zap.NewNop())
	err := ScheduleCasino(s, &fakeMaintainer{}, "0 0 * * *", "sometimes")
	assert.Error(t, err)
}
