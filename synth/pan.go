package synth

import "math"

// PanGains returns the equal-power left/right gains for pan, clamped to [-1, 1].
// gl² + gr² is always 1.
func PanGains(pan float64) (gl, gr float64) {
	pan = math.Max(-1, math.Min(1, pan))
	x := (pan + 1) / 2 * math.Pi / 2
	return math.Cos(x), math.Sin(x)
}

// Pan splits a mono sample into a stereo pair using the equal-power law
func Pan(pan, s float64) (l, r float64) {
	gl, gr := PanGains(pan)
	return s * gl, s * gr
}
