package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/session"
	"github.com/satindergrewal/calmwave/internal/visualizer"
)

// Default braille grid before the first window size arrives.
const (
	defaultCols = 60
	defaultRows = 8
)

// SnapshotMsg carries the latest session state to the UI.
type SnapshotMsg session.Snapshot

// FrameMsg carries one rasterized visualizer frame.
type FrameMsg struct {
	Mode  mode.Mode
	Lines []string
}

// Feed hands loop-side updates to the UI goroutine. Only the latest snapshot
// and frame are retained, so a slow terminal never stalls the event loop.
//
// Publish, Frame and Resize must be called on the event loop.
type Feed struct {
	engine *visualizer.Engine
	cols   int
	rows   int

	snaps  chan session.Snapshot
	frames chan FrameMsg
}

// NewFeed returns a feed that rasterizes e onto the default grid.
func NewFeed(e *visualizer.Engine) *Feed {
	f := &Feed{
		engine: e,
		snaps:  make(chan session.Snapshot, 1),
		frames: make(chan FrameMsg, 1),
	}
	f.Resize(defaultCols, defaultRows)
	return f
}

// Engine returns the visualizer the feed rasterizes.
func (f *Feed) Engine() *visualizer.Engine { return f.engine }

// Resize sets the braille grid; the engine surface follows in dots.
func (f *Feed) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	f.cols, f.rows = cols, rows
	f.engine.Resize(visualizer.Surface{Width: cols * 2, Height: rows * 4, Ratio: 1})
}

// Publish is a session observer.
func (f *Feed) Publish(s session.Snapshot) { replace(f.snaps, s) }

// Frame is a visualizer.Drive frame callback.
func (f *Feed) Frame(m mode.Mode, e *visualizer.Engine) {
	replace(f.frames, FrameMsg{Mode: m, Lines: visualizer.Braille(e.Lines(m), f.cols, f.rows)})
}

func (f *Feed) waitSnapshot(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.snaps:
			return SnapshotMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}

func (f *Feed) waitFrame(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case fr := <-f.frames:
			return fr
		case <-ctx.Done():
			return nil
		}
	}
}

// replace stores v in a one-slot channel, discarding any unread value.
// There is a single producer per channel.
func replace[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
