// Package timer implements the session timer policy: an endless session with a
// cosmetic progress counter, or a countdown that completes exactly once.
package timer

import (
	"errors"
	"fmt"
	"math"
)

// Kind distinguishes the two timer policies.
type Kind int

const (
	Infinite Kind = iota
	Countdown
)

func (k Kind) String() string {
	switch k {
	case Infinite:
		return "infinite"
	case Countdown:
		return "countdown"
	default:
		return "unknown"
	}
}

// DefaultProgressStep is the progress increment per progress tick.
const DefaultProgressStep = 0.1

// ErrInvalidDuration is returned for countdown targets outside
// [1, MaxCountdownSeconds] seconds.
var ErrInvalidDuration = errors.New("invalid countdown duration")

// MaxCountdownSeconds is the longest accepted countdown target.
const MaxCountdownSeconds = math.MaxInt32

// Policy is either Infinite or Countdown with a target in seconds.
type Policy struct {
	Kind          Kind
	TargetSeconds float64
}

// InfinitePolicy returns the endless policy.
func InfinitePolicy() Policy { return Policy{Kind: Infinite} }

// CountdownPolicy returns a countdown of the given number of seconds.
func CountdownPolicy(seconds float64) Policy {
	return Policy{Kind: Countdown, TargetSeconds: seconds}
}

// Minutes returns a countdown policy for a whole number of minutes.
func Minutes(m int) Policy { return CountdownPolicy(float64(m) * 60) }

// Validate reports whether p can be applied.
func (p Policy) Validate() error {
	switch p.Kind {
	case Infinite:
		return nil
	case Countdown:
		s := p.TargetSeconds
		if math.IsNaN(s) || s < 1 || s > MaxCountdownSeconds {
			return fmt.Errorf("%w: %v", ErrInvalidDuration, s)
		}
		return nil
	default:
		return fmt.Errorf("unknown timer policy %d", p.Kind)
	}
}

func (p Policy) String() string {
	if p.Kind == Countdown {
		return fmt.Sprintf("countdown(%ds)", int(math.Round(p.TargetSeconds)))
	}
	return p.Kind.String()
}

// Presets are the durations offered by the timer picker, in minutes.
var Presets = []int{15, 30, 45, 60, 90, 120, 240, 480}

// Completion is reported once when a countdown reaches zero.
type Completion struct {
	ElapsedSeconds int
}

// Engine holds remaining time and progress. It is driven entirely by its
// Tick methods and is not safe for concurrent use.
type Engine struct {
	policy    Policy
	target    int
	remaining int
	completed bool

	step  float64
	ticks uint64
}

// New returns an engine in the Infinite policy with the given progress step.
// A non-positive step falls back to DefaultProgressStep.
func New(step float64) *Engine {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = DefaultProgressStep
	}
	return &Engine{policy: InfinitePolicy(), step: step}
}

// SetPolicy applies p. An invalid p is rejected and the previous policy kept.
// Switching to Infinite discards any remaining countdown without completing.
func (e *Engine) SetPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.policy = p
	e.completed = false
	if p.Kind == Countdown {
		e.target = int(math.Round(p.TargetSeconds))
		e.remaining = e.target
	} else {
		e.target = 0
		e.remaining = 0
	}
	return nil
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy { return e.policy }

// Counting reports whether countdown ticks have any effect.
func (e *Engine) Counting() bool {
	return e.policy.Kind == Countdown && !e.completed
}

// Remaining returns the countdown seconds left; 0 in the Infinite policy.
func (e *Engine) Remaining() int { return e.remaining }

// Elapsed returns the countdown seconds already ticked away.
func (e *Engine) Elapsed() int { return e.target - e.remaining }

// Completed reports whether the countdown has reached zero.
func (e *Engine) Completed() bool { return e.completed }

// Progress returns the cosmetic progress percentage in [0,100).
func (e *Engine) Progress() float64 {
	p := math.Mod(float64(e.ticks)*e.step, 100)
	if p < 0 || p >= 100 || math.IsNaN(p) {
		return 0
	}
	return p
}

// TickProgress advances the progress counter by one step, wrapping at 100.
func (e *Engine) TickProgress() float64 {
	e.ticks++
	return e.Progress()
}

// ResetProgress sets progress back to 0.
func (e *Engine) ResetProgress() { e.ticks = 0 }

// TickCountdown decrements the countdown by one second. It returns a
// Completion and true on the tick that reaches zero, and never again until the
// policy is reset or Restart is called.
func (e *Engine) TickCountdown() (Completion, bool) {
	if !e.Counting() {
		return Completion{}, false
	}
	e.remaining--
	if e.remaining > 0 {
		return Completion{}, false
	}
	e.remaining = 0
	e.completed = true
	return Completion{ElapsedSeconds: e.target}, true
}

// Restart rewinds the active policy: the countdown starts over from its
// target and progress returns to 0.
func (e *Engine) Restart() {
	e.ticks = 0
	e.completed = false
	if e.policy.Kind == Countdown {
		e.remaining = e.target
	}
}
