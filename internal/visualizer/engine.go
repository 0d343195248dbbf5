// Package visualizer draws the ambient waveform that accompanies playback.
//
// The engine owns a time accumulator that advances per frame; waveform
// geometry is a pure function of (tuning, time, line index, x) so frames are
// reproducible for a given accumulator value.
package visualizer

import (
	"image"
	"image/color"
	"math"

	"github.com/satindergrewal/calmwave/internal/mode"
)

// Surface is the logical drawing area plus the device pixel ratio.
type Surface struct {
	Width  int
	Height int
	Ratio  float64
}

func (s Surface) normalized() Surface {
	if s.Width < 1 {
		s.Width = 1
	}
	if s.Height < 1 {
		s.Height = 1
	}
	if s.Ratio <= 0 || math.IsNaN(s.Ratio) || math.IsInf(s.Ratio, 0) {
		s.Ratio = 1
	}
	return s
}

// Device returns the backing buffer dimensions.
func (s Surface) Device() (int, int) {
	return int(math.Round(float64(s.Width) * s.Ratio)), int(math.Round(float64(s.Height) * s.Ratio))
}

// Point is a sample in surface coordinates.
type Point struct{ X, Y float64 }

// Polyline is one waveform line.
type Polyline []Point

// Engine is a per-surface visualizer. It is not safe for concurrent use.
type Engine struct {
	surface Surface
	t       float64
	buf     *image.RGBA
}

// New returns an engine sized for s with the accumulator at zero.
func New(s Surface) *Engine {
	e := &Engine{}
	e.Resize(s)
	return e
}

// Resize re-derives the backing buffer. The time accumulator is preserved.
func (e *Engine) Resize(s Surface) {
	e.surface = s.normalized()
	w, h := e.surface.Device()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	e.buf = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Surface reports the current logical surface.
func (e *Engine) Surface() Surface { return e.surface }

// Time returns the accumulator.
func (e *Engine) Time() float64 { return e.t }

// Reset zeroes the accumulator.
func (e *Engine) Reset() { e.t = 0 }

// Advance steps the accumulator by the playing or paused rate and returns it.
func (e *Engine) Advance(playing bool) float64 {
	if playing {
		e.t += PlayingStep
	} else {
		e.t += PausedStep
	}
	return e.t
}

// Sample returns the waveform height at x for line i at time t, centred
// on center.
func Sample(tn Tuning, t float64, i int, x, center float64) float64 {
	wave := math.Sin(x*tn.Frequency + tn.Phase + t + float64(i))
	swell := math.Sin(t*0.5 + float64(i)*tn.LineOffset)
	return center + wave*tn.Amplitude*swell
}

// Lines samples every waveform line for m at the current accumulator, one
// point per surface pixel column.
func (e *Engine) Lines(m mode.Mode) []Polyline {
	tn := TuningFor(m)
	center := float64(e.surface.Height) / 2
	out := make([]Polyline, tn.Lines)
	for i := range out {
		pl := make(Polyline, 0, e.surface.Width)
		for x := 0; x < e.surface.Width; x++ {
			fx := float64(x)
			pl = append(pl, Point{X: fx, Y: Sample(tn, e.t, i, fx, center)})
		}
		out[i] = pl
	}
	return out
}

// Frame advances the accumulator and renders.
func (e *Engine) Frame(m mode.Mode, playing bool) *image.RGBA {
	e.Advance(playing)
	return e.Draw(m)
}

// Draw renders the current accumulator into the backing buffer without
// advancing it. The returned image is reused by subsequent calls.
func (e *Engine) Draw(m mode.Mode) *image.RGBA {
	p := PaletteFor(m)
	e.drawBackdrop(p)
	e.drawLines(m, p.Line)
	return e.buf
}

// drawBackdrop fills a diagonal gradient from the top-left to the
// bottom-right corner.
func (e *Engine) drawBackdrop(p Palette) {
	b := e.buf.Bounds()
	span := float64(b.Dx() + b.Dy() - 2)
	if span <= 0 {
		span = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			e.buf.SetRGBA(x, y, Mix(p.From, p.To, float64(x+y)/span))
		}
	}
}

// drawLines rasterizes each line column by column, spanning the vertical
// gap to the previous column so steep sections stay connected.
func (e *Engine) drawLines(m mode.Mode, c color.RGBA) {
	tn := TuningFor(m)
	ratio := e.surface.Ratio
	b := e.buf.Bounds()
	half := tn.LineWidth * ratio / 2
	center := float64(e.surface.Height) / 2
	for i := 0; i < tn.Lines; i++ {
		prev := math.NaN()
		for px := b.Min.X; px < b.Max.X; px++ {
			y := Sample(tn, e.t, i, float64(px)/ratio, center) * ratio
			lo, hi := y, y
			if !math.IsNaN(prev) {
				lo, hi = math.Min(prev, y), math.Max(prev, y)
			}
			prev = y
			top := int(math.Floor(lo - half))
			bot := int(math.Ceil(hi + half))
			if top < b.Min.Y {
				top = b.Min.Y
			}
			if bot > b.Max.Y {
				bot = b.Max.Y
			}
			for py := top; py < bot; py++ {
				e.buf.SetRGBA(px, py, blend(e.buf.RGBAAt(px, py), c, tn.Alpha))
			}
		}
	}
}
