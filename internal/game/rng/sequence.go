package rng

import (
	"fmt"
	"sync"
)

// Sequence is a Source that replays a fixed list of draws. It forces
// specific outcomes when replaying a recorded round or testing an engine.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a Sequence yielding values in order.
//
// Precondition: every value is in [0, 1).
func NewSequence(values ...float64) *Sequence {
	for _, v := range values {
		if v < 0 || v >= 1 {
			panic(fmt.Sprintf("rng: sequence value %v outside [0, 1)", v))
		}
	}
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float64 returns the next queued value.
//
// Panics when the sequence is exhausted; a caller drawing more values than
// queued is a broken replay.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		panic(fmt.Sprintf("rng: sequence exhausted after %d draws", len(s.values)))
	}
	v := s.values[s.next]
	s.next++
	return v
}

// Remaining reports how many queued values have not been drawn.
func (s *Sequence) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) - s.next
}
