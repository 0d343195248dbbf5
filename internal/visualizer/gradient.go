package visualizer

import "image/color"

// Smoothstep returns the smoothstep interpolation 3t^2 - 2t^3 for t in [0,1].
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Mix blends two colours at the given progress (0 = a, 1 = b) along the
// smoothstep curve.
func Mix(a, b color.RGBA, progress float64) color.RGBA {
	g := Smoothstep(progress)
	mix := func(x, y uint8) uint8 {
		v := float64(x)*(1-g) + float64(y)*g
		if v > 255 {
			v = 255
		} else if v < 0 {
			v = 0
		}
		return uint8(v + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// blend composites src with the given alpha over dst.
func blend(dst color.RGBA, src color.RGBA, alpha float64) color.RGBA {
	if alpha <= 0 {
		return dst
	}
	if alpha > 1 {
		alpha = 1
	}
	over := func(d, s uint8) uint8 {
		return uint8(float64(s)*alpha + float64(d)*(1-alpha) + 0.5)
	}
	return color.RGBA{R: over(dst.R, src.R), G: over(dst.G, src.G), B: over(dst.B, src.B), A: 0xff}
}
