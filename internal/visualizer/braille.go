package visualizer

import (
	"math"
	"strings"
)

// braille dot bits indexed by [row][col] within a 2x4 cell.
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Braille rasterizes lines onto a grid of cols x rows braille cells. Line
// coordinates are in dots: each cell is two dots wide and four tall.
// Consecutive points are joined vertically.
func Braille(lines []Polyline, cols, rows int) []string {
	if cols < 1 || rows < 1 {
		return nil
	}
	cells := make([][]rune, rows)
	for r := range cells {
		cells[r] = make([]rune, cols)
	}
	dotW, dotH := cols*2, rows*4
	set := func(x, y int) {
		if x < 0 || y < 0 || x >= dotW || y >= dotH {
			return
		}
		cells[y/4][x/2] |= brailleBits[y%4][x%2]
	}
	for _, pl := range lines {
		prevY := math.NaN()
		for _, pt := range pl {
			x := int(math.Round(pt.X))
			y := int(math.Round(pt.Y))
			lo, hi := y, y
			if !math.IsNaN(prevY) {
				p := int(prevY)
				if p < lo {
					lo = p
				}
				if p > hi {
					hi = p
				}
			}
			prevY = float64(y)
			for yy := lo; yy <= hi; yy++ {
				set(x, yy)
			}
		}
	}
	out := make([]string, rows)
	var sb strings.Builder
	for r, row := range cells {
		sb.Reset()
		for _, bits := range row {
			sb.WriteRune(0x2800 + bits)
		}
		out[r] = sb.String()
	}
	return out
}
