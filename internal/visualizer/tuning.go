package visualizer

import (
	"image/color"

	"github.com/satindergrewal/calmwave/internal/mode"
)

// Tuning holds the per-mode waveform constants.
type Tuning struct {
	Frequency  float64 // radians per surface pixel
	Amplitude  float64 // surface pixels
	Phase      float64 // radians
	LineOffset float64 // amplitude phase stagger between lines
	Lines      int
	LineWidth  float64 // surface pixels
	Alpha      float64
}

// Time accumulator steps per frame.
const (
	PlayingStep = 0.02
	PausedStep  = 0.005
)

var tunings = map[mode.Mode]Tuning{
	// tight, fast, shallow
	mode.Focus: {Frequency: 0.02, Amplitude: 30, Phase: 0, LineOffset: 0.6, Lines: 3, LineWidth: 2, Alpha: 0.5},
	mode.Relax: {Frequency: 0.01, Amplitude: 50, Phase: 0.5, LineOffset: 0.8, Lines: 3, LineWidth: 2, Alpha: 0.5},
	// slow, wide, deep
	mode.Sleep:    {Frequency: 0.005, Amplitude: 80, Phase: 1.0, LineOffset: 1.0, Lines: 3, LineWidth: 2, Alpha: 0.5},
	mode.Meditate: {Frequency: 0.008, Amplitude: 60, Phase: 1.5, LineOffset: 0.9, Lines: 5, LineWidth: 2, Alpha: 0.5},
}

var fallbackTuning = Tuning{Frequency: 0.01, Amplitude: 50, LineOffset: 0.8, Lines: 3, LineWidth: 2, Alpha: 0.5}

// TuningFor returns the waveform constants for m.
func TuningFor(m mode.Mode) Tuning {
	if t, ok := tunings[m]; ok {
		return t
	}
	return fallbackTuning
}

// Palette is the resolved colour set for a mode.
type Palette struct {
	From, To color.RGBA // backdrop gradient stops
	Line     color.RGBA
}

// PaletteFor resolves the mode's gradient and accent colours. Unknown modes
// and malformed colours fall back to a neutral palette.
func PaletteFor(m mode.Mode) Palette {
	p := Palette{
		From: color.RGBA{0x0D, 0x11, 0x17, 0xff},
		To:   color.RGBA{0x16, 0x1B, 0x22, 0xff},
		Line: color.RGBA{0xff, 0xff, 0xff, 0xff},
	}
	info, ok := mode.Lookup(m)
	if !ok {
		return p
	}
	if c, err := mode.ParseHex(info.Gradient.From); err == nil {
		p.From = c
	}
	if c, err := mode.ParseHex(info.Gradient.To); err == nil {
		p.To = c
	}
	if c, err := mode.ParseHex(info.Accent); err == nil {
		p.Line = c
	}
	return p
}
