package session

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/calmwave/internal/activity"
	"github.com/satindergrewal/calmwave/internal/audiosource"
	"github.com/satindergrewal/calmwave/internal/history"
	"github.com/satindergrewal/calmwave/internal/log"
	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/sequencer"
	"github.com/satindergrewal/calmwave/internal/timer"
)

const (
	progressEvery  = 100 * time.Millisecond
	countdownEvery = time.Second
)

// fakeScheduler records periodic registrations; tests fire them by period.
type fakeScheduler struct {
	next  int
	tasks map[int]fakeTask
}

type fakeTask struct {
	period time.Duration
	fn     func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[int]fakeTask)}
}

func (s *fakeScheduler) Every(period time.Duration, fn func()) func() {
	id := s.next
	s.next++
	s.tasks[id] = fakeTask{period: period, fn: fn}
	return func() { delete(s.tasks, id) }
}

// fire runs every task registered for period once, in registration order.
func (s *fakeScheduler) fire(period time.Duration) {
	ids := make([]int, 0, len(s.tasks))
	for id, task := range s.tasks {
		if task.period == period {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		if task, ok := s.tasks[id]; ok {
			task.fn()
		}
	}
}

func (s *fakeScheduler) fireN(period time.Duration, n int) {
	for i := 0; i < n; i++ {
		s.fire(period)
	}
}

func (s *fakeScheduler) active(period time.Duration) int {
	n := 0
	for _, task := range s.tasks {
		if task.period == period {
			n++
		}
	}
	return n
}

type fakeAudio struct {
	loads   []audiosource.Descriptor
	plays   int
	pauses  int
	stops   int
	volume  float64
	playErr error
}

func (a *fakeAudio) Load(d audiosource.Descriptor) { a.loads = append(a.loads, d) }
func (a *fakeAudio) Play() error                   { a.plays++; return a.playErr }
func (a *fakeAudio) Pause()                        { a.pauses++ }
func (a *fakeAudio) SetVolume(v float64)           { a.volume = v }
func (a *fakeAudio) Stop()                         { a.stops++ }

type fakeHistory struct {
	records []history.Result
	err     error
}

func (h *fakeHistory) Record(_ context.Context, r history.Result) error {
	h.records = append(h.records, r)
	return h.err
}

type harness struct {
	c     *Controller
	sched *fakeScheduler
	audio *fakeAudio
	hist  *fakeHistory
}

func newHarness(t *testing.T, mutate ...func(*Deps, *Options)) *harness {
	t.Helper()
	h := &harness{sched: newFakeScheduler(), audio: &fakeAudio{}, hist: &fakeHistory{}}
	deps := Deps{
		Activities: activity.Default(),
		Audio:      h.audio,
		History:    h.hist,
		Scheduler:  h.sched,
		Seeds:      sequencer.CounterSeeds(1),
		Dispatch:   func(fn func()) { fn() },
		Logger:     log.Nop(),
	}
	opts := DefaultOptions()
	opts.ProgressInterval = progressEvery
	opts.CountdownInterval = countdownEvery
	for _, m := range mutate {
		m(&deps, &opts)
	}
	h.c = New(deps, opts)
	return h
}

func (h *harness) mount(t *testing.T, m mode.Mode) {
	t.Helper()
	require.NoError(t, h.c.Mount(m))
}

// --- testable properties ---

func TestSkipNextThenPreviousRestoresSeed(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SkipNext())
	require.NoError(t, h.c.SkipNext())
	before := h.c.Snapshot().Seed

	for n := 1; n <= 4; n++ {
		for i := 0; i < n; i++ {
			require.NoError(t, h.c.SkipNext())
		}
		for i := 0; i < n; i++ {
			require.NoError(t, h.c.SkipPrevious())
		}
		assert.Equal(t, before, h.c.Snapshot().Seed, "after %d skips each way", n)
	}
}

func TestSkipPreviousOnEmptyHistoryIsNoop(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Relax)
	require.NoError(t, h.c.SkipNext())
	require.NoError(t, h.c.TogglePlay()) // pause
	before := h.c.Snapshot()
	loads := len(h.audio.loads)

	require.NoError(t, h.c.SkipPrevious())

	after := h.c.Snapshot()
	assert.Equal(t, before.Seed, after.Seed)
	assert.Equal(t, before.History, after.History)
	assert.Equal(t, Paused, after.State)
	assert.False(t, after.CanRetreat)
	assert.Len(t, h.audio.loads, loads)
}

func TestCountdownCompletesExactlyOnce(t *testing.T) {
	const T = 90
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(T)))

	h.sched.fireN(countdownEvery, T-1)
	assert.Equal(t, Playing, h.c.Snapshot().State)
	assert.Equal(t, 1, h.c.Snapshot().Timer.RemainingSeconds)
	assert.Empty(t, h.hist.records)

	h.sched.fire(countdownEvery)
	s := h.c.Snapshot()
	assert.Equal(t, Completed, s.State)
	assert.False(t, s.Playing)
	require.NotNil(t, s.Result)
	assert.Equal(t, T, s.Result.DurationSeconds)
	assert.Equal(t, []history.Result{{Mode: mode.Focus, DurationSeconds: T}}, h.hist.records)

	h.sched.fire(countdownEvery)
	h.c.onCountdownTick()
	assert.Len(t, h.hist.records, 1)
	assert.Zero(t, h.sched.active(countdownEvery))
	assert.Zero(t, h.sched.active(progressEvery))
}

func TestProgressWraps(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	for _, n := range []int{1, 999, 1000, 1234} {
		require.NoError(t, h.c.Restart())
		h.sched.fireN(progressEvery, n)
		p := h.c.Snapshot().Progress
		assert.InDelta(t, float64(n)*timer.DefaultProgressStep-100*float64(int(float64(n)*timer.DefaultProgressStep/100)), p, 1e-6, "n=%d", n)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Less(t, p, 100.0)
	}
}

func TestVolumeClamped(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Sleep)
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0.3, 0.3},
		{1.0, 1},
		{4, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.c.SetVolume(tt.in))
		assert.Equal(t, tt.want, h.c.Snapshot().Volume)
		assert.Equal(t, tt.want, h.audio.volume)
	}
}

func TestModeSwitchDuringCountdown(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(60)))
	h.sched.fireN(progressEvery, 37)
	h.sched.fireN(countdownEvery, 10)
	require.NoError(t, h.c.SkipNext())
	require.NoError(t, h.c.SkipNext())

	require.NoError(t, h.c.SelectMode(mode.Sleep))

	s := h.c.Snapshot()
	assert.Zero(t, s.Progress)
	assert.Nil(t, s.Result)
	assert.Empty(t, h.hist.records)
	assert.Empty(t, s.History)
	assert.Equal(t, "deep-sleep", s.Activity.ID)
	assert.Equal(t, Playing, s.State)
	assert.Equal(t, 50, s.Timer.RemainingSeconds)
	assert.Equal(t, mode.Sleep, h.audio.loads[len(h.audio.loads)-1].Mode)
}

func TestFocusCountdownEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	assert.Equal(t, activity.Default().ActivitiesFor(mode.Focus)[0], h.c.Snapshot().Activity)
	assert.Equal(t, "deep-work", h.c.Snapshot().Activity.ID)

	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(1500)))
	h.sched.fireN(countdownEvery, 1500)

	s := h.c.Snapshot()
	assert.Equal(t, Completed, s.State)
	require.NotNil(t, s.Result)
	assert.Equal(t, 1500, s.Result.DurationSeconds)
	assert.Equal(t, mode.Focus, s.Result.Mode)
}

func TestSkipHistoryEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	for i := 0; i < 5; i++ {
		require.NoError(t, h.c.SkipNext())
	}
	s := h.c.Snapshot()
	assert.Equal(t, []int64{1, 2, 3, 4}, s.History)
	assert.Equal(t, int64(5), s.Seed)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.c.SkipPrevious())
	}
	s = h.c.Snapshot()
	assert.Equal(t, int64(1), s.Seed)
	assert.Empty(t, s.History)
	assert.Equal(t, Playing, s.State)
}

// --- scheduling ---

func TestTickersFollowState(t *testing.T) {
	h := newHarness(t, func(_ *Deps, o *Options) { o.Autoplay = false })
	h.mount(t, mode.Focus)
	assert.Equal(t, Idle, h.c.Snapshot().State)
	assert.Zero(t, h.sched.active(progressEvery))

	require.NoError(t, h.c.TogglePlay())
	assert.Equal(t, 1, h.sched.active(progressEvery))
	assert.Zero(t, h.sched.active(countdownEvery))

	require.NoError(t, h.c.SetTimerPolicy(timer.Minutes(15)))
	assert.Equal(t, 1, h.sched.active(progressEvery))
	assert.Equal(t, 1, h.sched.active(countdownEvery))

	require.NoError(t, h.c.TogglePlay())
	assert.Equal(t, Paused, h.c.Snapshot().State)
	assert.Zero(t, h.sched.active(progressEvery))
	assert.Zero(t, h.sched.active(countdownEvery))

	require.NoError(t, h.c.TogglePlay())
	require.NoError(t, h.c.SetTimerPolicy(timer.InfinitePolicy()))
	assert.Zero(t, h.sched.active(countdownEvery))
	assert.Equal(t, 1, h.sched.active(progressEvery))

	h.c.Unmount()
	assert.Empty(t, h.sched.tasks)
	assert.Equal(t, 1, h.audio.stops)
}

func TestPauseKeepsRemaining(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Relax)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(30)))
	h.sched.fireN(countdownEvery, 12)
	require.NoError(t, h.c.TogglePlay())
	h.sched.fireN(countdownEvery, 5)
	assert.Equal(t, 18, h.c.Snapshot().Timer.RemainingSeconds)

	require.NoError(t, h.c.TogglePlay())
	h.sched.fireN(countdownEvery, 3)
	assert.Equal(t, 15, h.c.Snapshot().Timer.RemainingSeconds)
}

func TestInFlightTickAfterPauseIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(10)))
	require.NoError(t, h.c.TogglePlay())
	h.c.onProgressTick()
	h.c.onCountdownTick()
	s := h.c.Snapshot()
	assert.Zero(t, s.Progress)
	assert.Equal(t, 10, s.Timer.RemainingSeconds)
}

func TestSwitchToInfiniteDiscardsCountdown(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(5)))
	h.sched.fireN(countdownEvery, 4)
	require.NoError(t, h.c.SetTimerPolicy(timer.InfinitePolicy()))
	h.sched.fireN(countdownEvery, 10)
	assert.Equal(t, Playing, h.c.Snapshot().State)
	assert.Empty(t, h.hist.records)
}

// --- state machine ---

func TestToggleIgnoredWhenCompleted(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(2)))
	h.sched.fireN(countdownEvery, 2)
	require.Equal(t, Completed, h.c.Snapshot().State)

	require.NoError(t, h.c.TogglePlay())
	assert.Equal(t, Completed, h.c.Snapshot().State)
	require.NoError(t, h.c.SkipNext())
	assert.Equal(t, Completed, h.c.Snapshot().State)
}

func TestRestartAfterCompletion(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Meditate)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(3)))
	h.sched.fireN(countdownEvery, 3)
	first := h.c.Snapshot().SessionID

	require.NoError(t, h.c.Restart())
	s := h.c.Snapshot()
	assert.Equal(t, Playing, s.State)
	assert.Equal(t, 3, s.Timer.RemainingSeconds)
	assert.Nil(t, s.Result)
	assert.NotEqual(t, first, s.SessionID)

	h.sched.fireN(countdownEvery, 3)
	assert.Len(t, h.hist.records, 2)
}

func TestPlayRejectionKeepsState(t *testing.T) {
	h := newHarness(t)
	h.audio.playErr = errors.New("autoplay blocked")
	h.mount(t, mode.Focus)
	assert.Equal(t, Playing, h.c.Snapshot().State)
	assert.Equal(t, 1, h.sched.active(progressEvery))
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	h.hist.err = errors.New("503")
	h.mount(t, mode.Sleep)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(1)))
	h.sched.fire(countdownEvery)
	s := h.c.Snapshot()
	assert.Equal(t, Completed, s.State)
	require.NotNil(t, s.Result)
	assert.Len(t, h.hist.records, 1)
}

func TestNoHistoryStore(t *testing.T) {
	h := newHarness(t, func(d *Deps, _ *Options) { d.History = nil })
	h.mount(t, mode.Sleep)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(1)))
	h.sched.fire(countdownEvery)
	assert.Equal(t, Completed, h.c.Snapshot().State)
}

func TestUnmountDoesNotPersist(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(100)))
	h.sched.fireN(countdownEvery, 40)
	h.c.Unmount()
	assert.Empty(t, h.hist.records)
	assert.False(t, h.c.Mounted())
	assert.ErrorIs(t, h.c.TogglePlay(), ErrNotMounted)
}

func TestInvalidTimerKeepsPolicy(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.SetTimerPolicy(timer.CountdownPolicy(120)))
	for _, bad := range []timer.Policy{
		timer.CountdownPolicy(-5),
		timer.CountdownPolicy(0),
		timer.CountdownPolicy(1e19),
	} {
		assert.ErrorIs(t, h.c.SetTimerPolicy(bad), timer.ErrInvalidDuration)
	}
	s := h.c.Snapshot()
	assert.Equal(t, "countdown", s.Timer.Kind)
	assert.Equal(t, 120, s.Timer.RemainingSeconds)

	h.sched.fireN(countdownEvery, 1)
	assert.Equal(t, 119, h.c.Snapshot().Timer.RemainingSeconds)
}

func TestSelectActivity(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	seed := h.c.Snapshot().Seed
	require.NoError(t, h.c.SelectActivity("learning"))
	assert.Equal(t, "Learning", h.c.Snapshot().Activity.Label)
	assert.Equal(t, seed, h.c.Snapshot().Seed)
	assert.ErrorIs(t, h.c.SelectActivity("deep-sleep"), ErrUnknownActivity)
}

type sparseSelector struct{ inner ActivitySelector }

func (s sparseSelector) ActivitiesFor(m mode.Mode) []activity.Activity {
	if m == mode.Meditate {
		return nil
	}
	return s.inner.ActivitiesFor(m)
}

func TestMissingActivitiesKeepPrevious(t *testing.T) {
	h := newHarness(t, func(d *Deps, _ *Options) { d.Activities = sparseSelector{activity.Default()} })
	h.mount(t, mode.Relax)
	require.NoError(t, h.c.SelectActivity("chill"))
	require.NoError(t, h.c.SelectMode(mode.Meditate))
	assert.Equal(t, "chill", h.c.Snapshot().Activity.ID)
	assert.Equal(t, mode.Meditate, h.c.Snapshot().Mode)
}

func TestSelectModeRejectsUnknown(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	assert.ErrorIs(t, h.c.SelectMode("jazz"), mode.ErrUnknownMode)
	assert.ErrorIs(t, h.c.Mount("jazz"), mode.ErrUnknownMode)
}

// --- audio descriptor ---

func TestDescriptorDerivation(t *testing.T) {
	h := newHarness(t, func(_ *Deps, o *Options) { o.TrackDuration = 300 })
	h.mount(t, mode.Focus)
	require.Len(t, h.audio.loads, 1)
	assert.Equal(t, audiosource.Descriptor{Mode: mode.Focus, DurationSeconds: 300}, h.audio.loads[0])

	h.sched.fireN(progressEvery, 50)
	require.NoError(t, h.c.SetTimerPolicy(timer.Minutes(30)))
	require.NoError(t, h.c.SelectActivity("creativity"))
	require.NoError(t, h.c.SelectMode(mode.Focus))
	assert.Len(t, h.audio.loads, 1)

	require.NoError(t, h.c.SkipNext())
	require.Len(t, h.audio.loads, 2)
	assert.Equal(t, audiosource.Descriptor{Mode: mode.Focus, DurationSeconds: 300, Seed: 1, HasSeed: true}, h.audio.loads[1])

	require.NoError(t, h.c.SelectMode(mode.Relax))
	require.Len(t, h.audio.loads, 3)
	assert.Equal(t, mode.Relax, h.audio.loads[2].Mode)
	assert.Equal(t, int64(2), h.audio.loads[2].Seed)
}

func TestTrackDurationClamped(t *testing.T) {
	h := newHarness(t, func(_ *Deps, o *Options) { o.TrackDuration = 5000 })
	h.mount(t, mode.Sleep)
	assert.Equal(t, audiosource.MaxDurationSeconds, h.audio.loads[0].DurationSeconds)
}

func TestObserveReceivesSnapshots(t *testing.T) {
	h := newHarness(t)
	var got []Snapshot
	cancel := h.c.Observe(func(s Snapshot) { got = append(got, s) })
	h.mount(t, mode.Focus)
	require.NoError(t, h.c.TogglePlay())
	require.Len(t, got, 2)
	assert.Equal(t, Playing, got[0].State)
	assert.Equal(t, Paused, got[1].State)

	cancel()
	require.NoError(t, h.c.TogglePlay())
	assert.Len(t, got, 2)
}

func TestSnapshotTitle(t *testing.T) {
	h := newHarness(t)
	h.mount(t, mode.Focus)
	assert.Equal(t, mode.Focus.Label(), h.c.Snapshot().Title)
	require.NoError(t, h.c.SkipNext())
	assert.Equal(t, mode.TrackTitle(mode.Focus, 1), h.c.Snapshot().Title)
}
