package visualizer

import (
	"time"

	"github.com/satindergrewal/calmwave/internal/mode"
)

// Scheduler runs fn every period until cancel is called.
type Scheduler interface {
	Every(period time.Duration, fn func()) (cancel func())
}

// StateFunc reports the mode and play flag for the next frame.
type StateFunc func() (mode.Mode, bool)

// Drive advances e once per frame period regardless of play state, calling
// onFrame after each step. It runs until the returned cancel is called,
// which the host does on unmount or surface teardown.
func Drive(s Scheduler, period time.Duration, e *Engine, state StateFunc, onFrame func(m mode.Mode, e *Engine)) (cancel func()) {
	return s.Every(period, func() {
		m, playing := state()
		e.Advance(playing)
		if onFrame != nil {
			onFrame(m, e)
		}
	})
}
