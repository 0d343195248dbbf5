// Package mode defines the fixed set of listening modes.
package mode

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Mode is a top-level listening category.
type Mode string

const (
	Focus    Mode = "focus"
	Relax    Mode = "relax"
	Sleep    Mode = "sleep"
	Meditate Mode = "meditate"
)

// ErrUnknownMode is returned by Parse for ids outside the enumeration.
var ErrUnknownMode = errors.New("unknown mode")

// Gradient is a two-stop linear gradient drawn at 135 degrees.
type Gradient struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Info describes a mode for display.
type Info struct {
	ID          Mode     `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Gradient    Gradient `json:"gradient"`
	Accent      string   `json:"accent"` // waveform colour
}

// order is the ring used by Next and Prev. Every mode appears exactly once.
var order = []Mode{Focus, Relax, Sleep, Meditate}

var catalog = map[Mode]Info{
	Focus: {
		ID:          Focus,
		Label:       "Focus",
		Description: "Deep work & concentration",
		Gradient:    Gradient{From: "#4A90E2", To: "#9013FE"},
		Accent:      "#60A5FA",
	},
	Relax: {
		ID:          Relax,
		Label:       "Relax",
		Description: "Decompress & recharge",
		Gradient:    Gradient{From: "#50E3C2", To: "#4A90E2"},
		Accent:      "#2DD4BF",
	},
	Sleep: {
		ID:          Sleep,
		Label:       "Sleep",
		Description: "Deep, restorative sleep",
		Gradient:    Gradient{From: "#2C3E50", To: "#4CA1AF"},
		Accent:      "#818CF8",
	},
	Meditate: {
		ID:          Meditate,
		Label:       "Meditate",
		Description: "Stillness & breath",
		Gradient:    Gradient{From: "#00B4DB", To: "#0083B0"},
		Accent:      "#FFFFFF",
	},
}

// All returns every mode in ring order.
func All() []Mode {
	out := make([]Mode, len(order))
	copy(out, order)
	return out
}

// Names returns the mode ids as strings, in ring order.
func Names() []string {
	names := make([]string, 0, len(order))
	for _, m := range order {
		names = append(names, string(m))
	}
	return names
}

// IsValid reports whether m is part of the enumeration.
func IsValid(m Mode) bool {
	_, ok := catalog[m]
	return ok
}

// Parse converts a mode id. Matching is case sensitive, like the audio API.
func Parse(s string) (Mode, error) {
	m := Mode(strings.TrimSpace(s))
	if !IsValid(m) {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Lookup returns the display info for m.
func Lookup(m Mode) (Info, bool) {
	info, ok := catalog[m]
	return info, ok
}

// Label returns the human label, or the raw id for unknown modes.
func (m Mode) Label() string {
	if info, ok := catalog[m]; ok {
		return info.Label
	}
	return string(m)
}

func (m Mode) String() string { return string(m) }

// Next returns the mode after m in the ring. Unknown modes map to Focus.
func Next(m Mode) Mode {
	return step(m, 1)
}

// Prev returns the mode before m in the ring. Unknown modes map to Focus.
func Prev(m Mode) Mode {
	return step(m, -1)
}

func step(m Mode, delta int) Mode {
	for i, cur := range order {
		if cur == m {
			return order[(i+delta+len(order))%len(order)]
		}
	}
	return Focus
}

// ParseHex parses "#RRGGBB" into an opaque colour.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("parse colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
