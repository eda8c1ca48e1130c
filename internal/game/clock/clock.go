// Package clock abstracts wall time and delayed callbacks so time-gated game
// loops can be driven deterministically.
package clock

import (
	"sync"
	"time"
)

// Timer is a pending callback created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the callback from firing. Safe to call multiple times.
	//
	// Postcondition: the callback will not start after Stop returns.
	Stop()
}

// Clock supplies the current time and schedules callbacks.
//
// Implementations MUST be safe for concurrent use.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once, after d has elapsed, on an unspecified goroutine.
	//
	// Precondition: d >= 0; f must not be nil.
	AfterFunc(d time.Duration, f func()) Timer
}

// Wall is the production Clock backed by the time package.
type Wall struct{}

// NewWall returns a Clock backed by the system clock.
func NewWall() Clock { return Wall{} }

// Now returns time.Now().
func (Wall) Now() time.Time { return time.Now() }

// AfterFunc schedules f with time.AfterFunc behind a stop guard.
func (Wall) AfterFunc(d time.Duration, f func()) Timer {
	wt := &wallTimer{}
	wt.timer = time.AfterFunc(d, func() {
		wt.mu.Lock()
		stopped := wt.stopped
		wt.mu.Unlock()
		if !stopped {
			f()
		}
	})
	return wt
}

type wallTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func (wt *wallTimer) Stop() {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	wt.stopped = true
	wt.timer.Stop()
}
