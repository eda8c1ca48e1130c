package clock_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/starcase/internal/game/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := clock.NewManual(epoch)
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })
	m.AfterFunc(5*time.Second, func() { order = append(order, "c") })

	m.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(3*time.Second), m.Now())
	assert.Equal(t, 1, m.Pending())
}

func TestManual_NowDuringCallbackIsDeadline(t *testing.T) {
	m := clock.NewManual(epoch)
	var seen time.Time
	m.AfterFunc(time.Second, func() { seen = m.Now() })
	m.Advance(10 * time.Second)
	assert.Equal(t, epoch.Add(time.Second), seen)
}

func TestManual_RescheduledCallbacksFireWithinWindow(t *testing.T) {
	m := clock.NewManual(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(100*time.Millisecond, tick)
	}
	m.AfterFunc(100*time.Millisecond, tick)
	m.Advance(time.Second)
	assert.Equal(t, 10, ticks)
}

func TestManual_StopPreventsFire(t *testing.T) {
	m := clock.NewManual(epoch)
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	timer.Stop()
	timer.Stop()
	m.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Zero(t, m.Pending())
}

func TestWall_FiresAndStops(t *testing.T) {
	c := clock.NewWall()
	var fired atomic.Bool
	done := make(chan struct{})
	c.AfterFunc(10*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wall timer did not fire")
	}
	require.True(t, fired.Load())

	var late atomic.Bool
	timer := c.AfterFunc(50*time.Millisecond, func() { late.Store(true) })
	timer.Stop()
	time.Sleep(100 * time.Millisecond)
	assert.False(t, late.Load())
}
