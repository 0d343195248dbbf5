// Package tui is the interactive playback screen.
//
// The session controller lives on the event loop. The model never touches it
// directly: every key press becomes a command that runs the operation on the
// loop and returns the resulting snapshot, and loop-side changes (ticks,
// completion, frames) arrive through a Feed.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/session"
	"github.com/satindergrewal/calmwave/internal/timer"
)

// Runner executes fn on the event loop and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// volumeStep is the change applied by one volume key press.
const volumeStep = 0.05

// Rows used by everything other than the waveform.
const chromeRows = 10

// resultMsg reports an operation. snap is nil when the loop did not run it.
type resultMsg struct {
	snap *session.Snapshot
	err  error
}

type resizedMsg struct{}

// Model is the bubbletea model for a mounted session.
type Model struct {
	ctx    context.Context
	runner Runner
	ctrl   *session.Controller
	acts   session.ActivitySelector
	feed   *Feed

	keys   keyMap
	help   help.Model
	bar    progress.Model
	styles styles

	snap  session.Snapshot
	frame []string
	err   error

	picking bool
	cursor  int

	width  int
	height int
}

// New returns a model driving ctrl through runner. ctrl must already be
// mounted and feed registered as its observer and frame sink.
func New(ctx context.Context, runner Runner, ctrl *session.Controller, acts session.ActivitySelector, feed *Feed) *Model {
	m := &Model{
		ctx:    ctx,
		runner: runner,
		ctrl:   ctrl,
		acts:   acts,
		feed:   feed,
		keys:   defaultKeys(),
		help:   help.New(),
	}
	m.restyle(mode.Focus)
	return m
}

func (m *Model) restyle(md mode.Mode) {
	m.styles = stylesFor(md)
	width := m.bar.Width
	if width == 0 {
		width = defaultCols
	}
	m.bar = progress.New(
		progress.WithSolidFill(string(m.styles.accent)),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.apply(func(*session.Controller) error { return nil }),
		m.feed.waitSnapshot(m.ctx),
		m.feed.waitFrame(m.ctx),
	)
}

// apply runs op on the loop and reports the resulting snapshot.
func (m *Model) apply(op func(c *session.Controller) error) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		var (
			snap  session.Snapshot
			opErr error
		)
		if err := m.runner.Do(m.ctx, func() {
			opErr = op(ctrl)
			snap = ctrl.Snapshot()
		}); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{snap: &snap, err: opErr}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cols := clamp(msg.Width-4, 10, 160)
		rows := clamp(msg.Height-chromeRows, 3, 16)
		m.bar.Width = cols
		m.help.Width = msg.Width
		feed := m.feed
		return m, func() tea.Msg {
			if err := m.runner.Do(m.ctx, func() { feed.Resize(cols, rows) }); err != nil {
				return resultMsg{err: err}
			}
			return resizedMsg{}
		}

	case SnapshotMsg:
		m.setSnapshot(session.Snapshot(msg))
		return m, m.feed.waitSnapshot(m.ctx)

	case FrameMsg:
		m.frame = msg.Lines
		return m, m.feed.waitFrame(m.ctx)

	case resultMsg:
		m.err = msg.err
		if msg.snap != nil {
			m.setSnapshot(*msg.snap)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.picking {
			return m, m.updatePicker(msg)
		}
		return m, m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) setSnapshot(s session.Snapshot) {
	if s.Mode != m.snap.Mode {
		m.restyle(s.Mode)
	}
	m.snap = s
}

func (m *Model) updateKeys(msg tea.KeyMsg) tea.Cmd {
	completed := m.snap.State == session.Completed
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Restart):
		return m.apply((*session.Controller).Restart)
	case key.Matches(msg, m.keys.Mode):
		next := mode.Next(m.snap.Mode)
		return m.apply(func(c *session.Controller) error { return c.SelectMode(next) })
	case key.Matches(msg, m.keys.ModeBack):
		prev := mode.Prev(m.snap.Mode)
		return m.apply(func(c *session.Controller) error { return c.SelectMode(prev) })
	case key.Matches(msg, m.keys.Timer):
		m.picking = true
		m.cursor = m.currentPreset()
	case completed:
		return nil
	case key.Matches(msg, m.keys.Play):
		return m.apply((*session.Controller).TogglePlay)
	case key.Matches(msg, m.keys.Next):
		return m.apply((*session.Controller).SkipNext)
	case key.Matches(msg, m.keys.Prev):
		return m.apply((*session.Controller).SkipPrevious)
	case key.Matches(msg, m.keys.Activity):
		if id, ok := m.nextActivity(); ok {
			return m.apply(func(c *session.Controller) error { return c.SelectActivity(id) })
		}
	case key.Matches(msg, m.keys.VolUp):
		return m.volume(volumeStep)
	case key.Matches(msg, m.keys.VolDown):
		return m.volume(-volumeStep)
	}
	return nil
}

func (m *Model) volume(delta float64) tea.Cmd {
	v := m.snap.Volume + delta
	return m.apply(func(c *session.Controller) error {
		c.SetVolume(v)
		return nil
	})
}

func (m *Model) nextActivity() (string, bool) {
	list := m.acts.ActivitiesFor(m.snap.Mode)
	if len(list) == 0 {
		return "", false
	}
	for i, a := range list {
		if a.ID == m.snap.Activity.ID {
			return list[(i+1)%len(list)].ID, true
		}
	}
	return list[0].ID, true
}

// timerOptions lists Infinite followed by the countdown presets.
func timerOptions() []timer.Policy {
	out := []timer.Policy{timer.InfinitePolicy()}
	for _, mins := range timer.Presets {
		out = append(out, timer.Minutes(mins))
	}
	return out
}

func (m *Model) currentPreset() int {
	if m.snap.Timer.Kind != timer.Countdown.String() {
		return 0
	}
	for i, p := range timerOptions() {
		if p.Kind == timer.Countdown && p.TargetSeconds == m.snap.Timer.TargetSeconds {
			return i
		}
	}
	return 0
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	opts := timerOptions()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor - 1 + len(opts)) % len(opts)
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(opts)
	case key.Matches(msg, m.keys.Cancel):
		m.picking = false
	case key.Matches(msg, m.keys.Select):
		m.picking = false
		p := opts[m.cursor]
		return m.apply(func(c *session.Controller) error { return c.SetTimerPolicy(p) })
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	st := m.styles
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		st.brand.Render("CALMWAVE"), "  ",
		st.modeName.Render(m.snap.ModeLabel),
		st.muted.Render(" · "+m.snap.Activity.Label),
	)

	var body string
	switch {
	case m.picking:
		body = m.viewPicker()
	case m.snap.State == session.Completed:
		body = m.viewSummary()
	default:
		body = m.viewPlayer()
	}

	var keys help.KeyMap = m.keys
	if m.picking {
		keys = pickerKeys{m.keys}
	} else if m.snap.State == session.Completed {
		keys = summaryKeys{m.keys}
	}

	parts := []string{header, body}
	if m.err != nil {
		parts = append(parts, st.err.Render(m.err.Error()))
	}
	parts = append(parts, "", m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) viewPlayer() string {
	st := m.styles
	title := st.title.Render(m.snap.Title)
	wave := st.wave.Render(strings.Join(m.frame, "\n"))

	status := lipgloss.JoinHorizontal(lipgloss.Bottom,
		st.status.Render(stateGlyph(m.snap.State)), "  ",
		timerLabel(m.snap.Timer), "  ",
		st.muted.Render(fmt.Sprintf("vol %d%%", int(math.Round(m.snap.Volume*100)))),
	)
	return lipgloss.JoinVertical(lipgloss.Left, title, "", wave, "", status, m.bar.ViewAs(barPercent(m.snap)))
}

func (m *Model) viewPicker() string {
	st := m.styles
	lines := []string{st.brand.Render("Session timer"), ""}
	for i, p := range timerOptions() {
		label := "Infinite"
		if p.Kind == timer.Countdown {
			label = durationLabel(int(p.TargetSeconds))
		}
		if i == m.cursor {
			lines = append(lines, st.cursor.Render("› "+label))
		} else {
			lines = append(lines, st.muted.Render("  "+label))
		}
	}
	return st.box.Render(strings.Join(lines, "\n"))
}

func (m *Model) viewSummary() string {
	st := m.styles
	seconds := m.snap.Timer.ElapsedSeconds
	if m.snap.Result != nil {
		seconds = m.snap.Result.DurationSeconds
	}
	minutes := int(math.Round(float64(seconds) / 60))
	text := lipgloss.JoinVertical(lipgloss.Left,
		st.brand.Render("Session complete"),
		"",
		fmt.Sprintf("You spent %d min in %s", minutes, st.modeName.Render(m.snap.ModeLabel)),
		st.muted.Render(m.snap.Activity.Label),
	)
	return st.box.Render(text)
}

func stateGlyph(s session.State) string {
	switch s {
	case session.Playing:
		return "▶ playing"
	case session.Paused:
		return "❚❚ paused"
	case session.Completed:
		return "■ done"
	default:
		return "· idle"
	}
}

func timerLabel(t session.TimerSnapshot) string {
	if t.Kind != timer.Countdown.String() {
		return "∞ endless"
	}
	return clock(t.RemainingSeconds) + " left"
}

func barPercent(s session.Snapshot) float64 {
	if s.Timer.Kind == timer.Countdown.String() && s.Timer.TargetSeconds > 0 {
		return math.Min(1, float64(s.Timer.ElapsedSeconds)/s.Timer.TargetSeconds)
	}
	return s.Progress / 100
}

func clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func durationLabel(seconds int) string {
	mins := seconds / 60
	if mins >= 60 && mins%60 == 0 {
		if mins == 60 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", mins/60)
	}
	return fmt.Sprintf("%d min", mins)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
