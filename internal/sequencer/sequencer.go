// Package sequencer tracks the current generated-track seed and the
// back-navigation history of seeds already played.
package sequencer

import (
	"sync"
	"time"
)

// SeedFunc produces a new track seed.
type SeedFunc func() int64

// TimeSeeds returns a SeedFunc derived from the wall clock in milliseconds.
// Seeds are strictly increasing even when called twice within a millisecond.
func TimeSeeds() SeedFunc {
	var mu sync.Mutex
	var last int64
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		s := time.Now().UnixMilli()
		if s <= last {
			s = last + 1
		}
		last = s
		return s
	}
}

// CounterSeeds returns a SeedFunc yielding start, start+1, ...
func CounterSeeds(start int64) SeedFunc {
	next := start
	return func() int64 {
		s := next
		next++
		return s
	}
}

// Sequencer owns the current seed and a LIFO history. It is not safe for
// concurrent use; the owning controller serializes access.
//
// A new sequencer has no current seed: the first rendering is whatever the
// audio provider produces by default. The first Advance therefore pushes
// nothing.
type Sequencer struct {
	next    SeedFunc
	current int64
	set     bool
	history []int64
	limit   int // 0 means unbounded
}

// New creates a sequencer without a current seed.
func New(next SeedFunc) *Sequencer {
	if next == nil {
		next = TimeSeeds()
	}
	return &Sequencer{next: next}
}

// WithLimit bounds the history; the oldest seeds are dropped first.
func (s *Sequencer) WithLimit(n int) *Sequencer {
	s.limit = n
	return s
}

// Current returns the seed of the rendering that should be playing and
// whether one has been chosen yet.
func (s *Sequencer) Current() (int64, bool) { return s.current, s.set }

// History returns a copy of the back stack, oldest first.
func (s *Sequencer) History() []int64 {
	out := make([]int64, len(s.history))
	copy(out, s.history)
	return out
}

// CanRetreat reports whether Retreat would change anything.
func (s *Sequencer) CanRetreat() bool { return len(s.history) > 0 }

// Advance pushes the current seed and makes a new one current.
func (s *Sequencer) Advance() int64 {
	if s.set {
		s.history = append(s.history, s.current)
		if s.limit > 0 && len(s.history) > s.limit {
			s.history = append(s.history[:0], s.history[len(s.history)-s.limit:]...)
		}
	}
	s.current = s.next()
	s.set = true
	return s.current
}

// Retreat pops the most recent seed and makes it current. It reports false
// and leaves everything unchanged when the history is empty.
func (s *Sequencer) Retreat() (int64, bool) {
	if len(s.history) == 0 {
		return s.current, false
	}
	last := len(s.history) - 1
	s.current = s.history[last]
	s.history = s.history[:last]
	return s.current, true
}

// Reset clears the history and generates a new current seed.
func (s *Sequencer) Reset() int64 {
	s.history = s.history[:0]
	s.current = s.next()
	s.set = true
	return s.current
}
