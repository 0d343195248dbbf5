// Package session implements the playback state machine. It composes the
// track sequencer, the timer engine, and playback state, and drives the audio
// follower and the history store as external collaborators.
//
// A Controller is not safe for concurrent use. Every method, and every
// scheduler callback, must run on the same serialized event loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/satindergrewal/calmwave/internal/activity"
	"github.com/satindergrewal/calmwave/internal/audiosource"
	"github.com/satindergrewal/calmwave/internal/history"
	"github.com/satindergrewal/calmwave/internal/metrics"
	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/sequencer"
	"github.com/satindergrewal/calmwave/internal/timer"
)

// ErrUnknownActivity is returned by SelectActivity for an id the current
// mode does not offer.
var ErrUnknownActivity = errors.New("unknown activity")

// ErrNotMounted is returned by operations issued without an active session.
var ErrNotMounted = errors.New("no active session")

// ActivitySelector supplies the ordered activities of a mode; the first is
// the default.
type ActivitySelector interface {
	ActivitiesFor(m mode.Mode) []activity.Activity
}

// Audio follows the session's descriptor. Play may reject.
type Audio interface {
	Load(d audiosource.Descriptor)
	Play() error
	Pause()
	SetVolume(v float64)
	Stop()
}

// HistoryStore records completed sessions.
type HistoryStore interface {
	Record(ctx context.Context, r history.Result) error
}

// Scheduler runs fn every period on the controller's event loop until the
// returned cancel is called.
type Scheduler interface {
	Every(period time.Duration, fn func()) (cancel func())
}

// Deps are the controller's collaborators. History may be nil.
type Deps struct {
	Activities ActivitySelector
	Audio      Audio
	History    HistoryStore
	Scheduler  Scheduler
	Seeds      sequencer.SeedFunc
	// Dispatch runs fn off the event loop. Defaults to a new goroutine.
	Dispatch func(fn func())
	Logger   zerolog.Logger
}

// Options tune timing and defaults.
type Options struct {
	ProgressInterval  time.Duration
	CountdownInterval time.Duration
	ProgressStep      float64
	TrackDuration     int // seconds requested per rendering
	Autoplay          bool
	Volume            float64
	HistoryLimit      int // 0 keeps every skipped seed
	PersistTimeout    time.Duration
}

// DefaultOptions returns the standard tick rates and an autoplaying session.
func DefaultOptions() Options {
	return Options{
		ProgressInterval:  100 * time.Millisecond,
		CountdownInterval: time.Second,
		ProgressStep:      timer.DefaultProgressStep,
		TrackDuration:     audiosource.MaxDurationSeconds,
		Autoplay:          true,
		Volume:            0.8,
		PersistTimeout:    10 * time.Second,
	}
}

// Controller owns the live session.
type Controller struct {
	deps   Deps
	opts   Options
	logger zerolog.Logger

	mounted     bool
	id          string
	state       State
	mode        mode.Mode
	activity    activity.Activity
	seq         *sequencer.Sequencer
	timer       *timer.Engine
	volume      float64
	desc        audiosource.Descriptor
	hasDesc     bool
	result      *history.Result
	persisted   bool
	cancelTicks []func()

	observers map[int]func(Snapshot)
	nextObs   int
}

// New creates an unmounted controller.
func New(deps Deps, opts Options) *Controller {
	def := DefaultOptions()
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = def.ProgressInterval
	}
	if opts.CountdownInterval <= 0 {
		opts.CountdownInterval = def.CountdownInterval
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = def.PersistTimeout
	}
	opts.TrackDuration = audiosource.ClampDuration(opts.TrackDuration)
	if deps.Seeds == nil {
		deps.Seeds = sequencer.TimeSeeds()
	}
	if deps.Dispatch == nil {
		deps.Dispatch = func(fn func()) { go fn() }
	}
	return &Controller{
		deps:      deps,
		opts:      opts,
		logger:    deps.Logger,
		volume:    clampVolume(opts.Volume),
		observers: make(map[int]func(Snapshot)),
	}
}

// Mount starts a session in mode m. Any previous session is torn down
// first. With autoplay the session goes straight to Playing.
func (c *Controller) Mount(m mode.Mode) error {
	if !mode.IsValid(m) {
		return fmt.Errorf("%w: %q", mode.ErrUnknownMode, m)
	}
	if c.mounted {
		c.teardown()
	}
	c.mounted = true
	c.newSession()
	c.state = Idle
	c.mode = m
	c.activity = activity.Activity{}
	c.applyDefaultActivity()
	c.seq = sequencer.New(c.deps.Seeds).WithLimit(c.opts.HistoryLimit)
	c.timer = timer.New(c.opts.ProgressStep)
	c.hasDesc = false
	c.deps.Audio.SetVolume(c.volume)
	metrics.SetVolume(c.volume)
	metrics.SetTimerRemaining(0)
	c.deriveAudio()
	c.logger.Info().Str("mode", string(m)).Str("activity", c.activity.ID).Msg("session mounted")

	if c.opts.Autoplay {
		c.enterPlaying()
	}
	c.notify()
	return nil
}

// Unmount cancels every periodic activity and stops audio. Nothing is
// persisted.
func (c *Controller) Unmount() {
	if !c.mounted {
		return
	}
	c.teardown()
	c.logger.Info().Msg("session unmounted")
	c.notify()
}

func (c *Controller) teardown() {
	c.cancelTickers()
	c.deps.Audio.Stop()
	c.transition(Idle)
	c.mounted = false
}

// Mounted reports whether a session is active.
func (c *Controller) Mounted() bool { return c.mounted }

// Mode reports the current mode.
func (c *Controller) Mode() mode.Mode { return c.mode }

// State reports the lifecycle state.
func (c *Controller) State() State { return c.state }

// Visual reports the mode and play flag; it is a visualizer.StateFunc.
func (c *Controller) Visual() (mode.Mode, bool) { return c.mode, c.state == Playing }

// TogglePlay flips Playing and Paused; Idle starts playing. Completed is
// left only through Restart.
func (c *Controller) TogglePlay() error {
	if !c.mounted {
		return ErrNotMounted
	}
	switch c.state {
	case Completed:
		c.logger.Debug().Msg("toggle ignored: session completed")
		return nil
	case Playing:
		c.transition(Paused)
		c.deps.Audio.Pause()
	default:
		c.enterPlaying()
	}
	c.notify()
	return nil
}

// Restart begins a new session attempt in the current mode: progress and
// timer rewind and the state becomes Playing.
func (c *Controller) Restart() error {
	if !c.mounted {
		return ErrNotMounted
	}
	c.newSession()
	c.timer.Restart()
	c.result = nil
	c.persisted = false
	metrics.SetTimerRemaining(c.timer.Remaining())
	c.logger.Info().Str("policy", c.timer.Policy().String()).Msg("session restarted")
	if c.state == Playing {
		c.rearm()
	} else {
		c.enterPlaying()
	}
	c.notify()
	return nil
}

// SelectActivity changes the activity without touching seed or timer.
func (c *Controller) SelectActivity(id string) error {
	if !c.mounted {
		return ErrNotMounted
	}
	for _, a := range c.deps.Activities.ActivitiesFor(c.mode) {
		if a.ID == id {
			c.activity = a
			c.notify()
			return nil
		}
	}
	return fmt.Errorf("%w: %q in %s", ErrUnknownActivity, id, c.mode)
}

// SelectMode switches mode: fresh seed, cleared history, default activity,
// progress back to 0. The play state and any countdown are kept. Selecting
// the current mode does nothing.
func (c *Controller) SelectMode(m mode.Mode) error {
	if !c.mounted {
		return ErrNotMounted
	}
	if !mode.IsValid(m) {
		return fmt.Errorf("%w: %q", mode.ErrUnknownMode, m)
	}
	if m == c.mode {
		return nil
	}
	c.logger.Info().Str("from", string(c.mode)).Str("to", string(m)).Msg("mode changed")
	metrics.RecordModeChange(string(m))
	c.mode = m
	c.seq.Reset()
	c.applyDefaultActivity()
	c.timer.ResetProgress()
	c.deriveAudio()
	c.notify()
	return nil
}

// SkipNext moves to a new rendering and plays it.
func (c *Controller) SkipNext() error {
	if !c.mounted {
		return ErrNotMounted
	}
	if c.state == Completed {
		c.logger.Debug().Msg("skip ignored: session completed")
		metrics.RecordSkip("next", false)
		return nil
	}
	seed := c.seq.Advance()
	metrics.RecordSkip("next", true)
	c.logger.Debug().Int64("seed", seed).Msg("skipped forward")
	c.afterSeedChange()
	return nil
}

// SkipPrevious returns to the previous rendering. With an empty history it
// changes nothing.
func (c *Controller) SkipPrevious() error {
	if !c.mounted {
		return ErrNotMounted
	}
	if c.state == Completed || !c.seq.CanRetreat() {
		metrics.RecordSkip("previous", false)
		return nil
	}
	seed, _ := c.seq.Retreat()
	metrics.RecordSkip("previous", true)
	c.logger.Debug().Int64("seed", seed).Msg("skipped back")
	c.afterSeedChange()
	return nil
}

func (c *Controller) afterSeedChange() {
	c.timer.ResetProgress()
	c.deriveAudio()
	if c.state != Playing {
		c.enterPlaying()
	}
	c.notify()
}

// SetTimerPolicy applies p. Countdown targets are in seconds. An invalid
// policy is rejected and the previous one kept.
func (c *Controller) SetTimerPolicy(p timer.Policy) error {
	if !c.mounted {
		return ErrNotMounted
	}
	if err := c.timer.SetPolicy(p); err != nil {
		c.logger.Warn().Err(err).Msg("timer policy rejected")
		return err
	}
	c.logger.Info().Str("policy", p.String()).Msg("timer policy set")
	metrics.SetTimerRemaining(c.timer.Remaining())
	if c.state == Playing {
		c.rearm()
	}
	c.notify()
	return nil
}

// SetVolume stores v clamped to [0,1] and returns the stored value. NaN is
// ignored.
func (c *Controller) SetVolume(v float64) float64 {
	if math.IsNaN(v) {
		return c.volume
	}
	c.volume = clampVolume(v)
	c.deps.Audio.SetVolume(c.volume)
	metrics.SetVolume(c.volume)
	if c.mounted {
		c.notify()
	}
	return c.volume
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		SessionID: c.id,
		Mounted:   c.mounted,
		State:     c.state,
		Playing:   c.state == Playing,
		Mode:      c.mode,
		ModeLabel: c.mode.Label(),
		Activity:  c.activity,
		Volume:    c.volume,
		Audio:     c.desc,
	}
	if c.timer != nil {
		p := c.timer.Policy()
		s.Timer = TimerSnapshot{
			Kind:             p.Kind.String(),
			TargetSeconds:    p.TargetSeconds,
			RemainingSeconds: c.timer.Remaining(),
			ElapsedSeconds:   c.timer.Elapsed(),
		}
		s.Progress = c.timer.Progress()
	}
	if c.seq != nil {
		s.Seed, s.HasSeed = c.seq.Current()
		s.History = c.seq.History()
		s.CanRetreat = c.seq.CanRetreat()
	}
	if s.HasSeed {
		s.Title = mode.TrackTitle(c.mode, s.Seed)
	} else if c.mounted {
		s.Title = c.mode.Label()
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// Observe registers fn to receive a snapshot after every change. fn runs on
// the event loop and must not block.
func (c *Controller) Observe(fn func(Snapshot)) (cancel func()) {
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

func (c *Controller) notify() {
	if len(c.observers) == 0 {
		return
	}
	s := c.Snapshot()
	for _, fn := range c.observers {
		fn(s)
	}
}

func (c *Controller) newSession() {
	c.id = uuid.NewString()
	c.logger = c.deps.Logger.With().Str("session_id", c.id).Logger()
}

// applyDefaultActivity selects the mode's first activity. With no data the
// previous activity stays.
func (c *Controller) applyDefaultActivity() {
	list := c.deps.Activities.ActivitiesFor(c.mode)
	if len(list) == 0 {
		c.logger.Warn().Str("mode", string(c.mode)).Msg("no activities for mode; keeping previous")
		return
	}
	c.activity = list[0]
}

// deriveAudio hands the player a new descriptor when mode or seed changed.
func (c *Controller) deriveAudio() {
	seed, ok := c.seq.Current()
	d := audiosource.Descriptor{
		Mode:            c.mode,
		DurationSeconds: c.opts.TrackDuration,
		Seed:            seed,
		HasSeed:         ok,
	}
	if c.hasDesc && d == c.desc {
		return
	}
	c.desc = d
	c.hasDesc = true
	c.deps.Audio.Load(d)
	metrics.RecordAudioLoad(string(d.Mode))
}

func (c *Controller) enterPlaying() {
	c.transition(Playing)
	if err := c.deps.Audio.Play(); err != nil {
		metrics.RecordPlayRejection()
		c.logger.Warn().Err(err).Msg("audio play rejected")
	}
}

// transition moves to next and re-arms the tickers for it.
func (c *Controller) transition(next State) {
	if next == c.state {
		return
	}
	c.logger.Debug().Stringer("from", c.state).Stringer("to", next).Msg("state")
	metrics.RecordTransition(c.state.String(), next.String())
	c.state = next
	c.rearm()
}

// rearm cancels both tickers and starts the ones the current state needs.
func (c *Controller) rearm() {
	c.cancelTickers()
	if !c.mounted || c.state != Playing {
		return
	}
	c.cancelTicks = append(c.cancelTicks, c.deps.Scheduler.Every(c.opts.ProgressInterval, c.onProgressTick))
	if c.timer.Counting() {
		c.cancelTicks = append(c.cancelTicks, c.deps.Scheduler.Every(c.opts.CountdownInterval, c.onCountdownTick))
	}
}

func (c *Controller) cancelTickers() {
	for _, cancel := range c.cancelTicks {
		cancel()
	}
	c.cancelTicks = c.cancelTicks[:0]
}

func (c *Controller) onProgressTick() {
	if !c.mounted || c.state != Playing {
		return
	}
	c.timer.TickProgress()
	c.notify()
}

func (c *Controller) onCountdownTick() {
	if !c.mounted || c.state != Playing {
		return
	}
	done, ok := c.timer.TickCountdown()
	metrics.SetTimerRemaining(c.timer.Remaining())
	if ok {
		c.onTimerCompleted(history.Result{Mode: c.mode, DurationSeconds: done.ElapsedSeconds})
	}
	c.notify()
}

// onTimerCompleted ends the session and requests persistence at most once.
func (c *Controller) onTimerCompleted(r history.Result) {
	c.result = &r
	c.transition(Completed)
	c.deps.Audio.Pause()
	metrics.RecordCompletion(string(r.Mode))
	c.logger.Info().Str("mode", string(r.Mode)).Int("elapsed_seconds", r.DurationSeconds).Msg("session completed")
	if c.persisted {
		return
	}
	c.persisted = true
	c.persist(r)
}

func (c *Controller) persist(r history.Result) {
	store := c.deps.History
	if store == nil {
		return
	}
	logger := c.logger
	timeout := c.opts.PersistTimeout
	c.deps.Dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := store.Record(ctx, r)
		metrics.RecordPersist(err)
		if err != nil {
			logger.Warn().Err(err).Msg("session history not recorded")
			return
		}
		logger.Info().Msg("session history recorded")
	})
}
