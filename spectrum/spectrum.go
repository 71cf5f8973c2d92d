// Package spectrum inspects rendered audio: level and dominant frequency of
// the most recent sounding samples.
package spectrum

import (
	"math"
	"math/cmplx"

	"github.com/ktye/fft"
)

// DefaultSize is the analysis window length in samples
const DefaultSize = 8192

// Analyzer is a render sink that keeps the last Size non-silent samples as a
// mono mix. Silent samples are skipped so a score that ends in silence still
// analyzes its last sounding passage.
type Analyzer struct {
	sampleRate float64
	ring       []float64
	pos        int
	filled     bool
	peak       float64
	frames     int
}

// New returns an Analyzer with a window of size samples, rounded up to a power of two
func New(sampleRate, size int) *Analyzer {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Analyzer{
		sampleRate: float64(sampleRate),
		ring:       make([]float64, n),
	}
}

func (a *Analyzer) Write(l, r float32) error {
	a.frames++
	if l == 0 && r == 0 {
		return nil
	}
	m := (float64(l) + float64(r)) / 2
	a.peak = math.Max(a.peak, math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	a.ring[a.pos] = m
	a.pos++
	if a.pos == len(a.ring) {
		a.pos = 0
		a.filled = true
	}
	return nil
}

func (a *Analyzer) Finish() error { return nil }

// Frames returns the number of frames seen, silent or not
func (a *Analyzer) Frames() int { return a.frames }

// Peak returns the largest absolute sample seen on either channel
func (a *Analyzer) Peak() float64 { return a.peak }

// window returns the captured samples in order, oldest first
func (a *Analyzer) window() []float64 {
	if !a.filled {
		return a.ring[:a.pos]
	}
	return append(append([]float64(nil), a.ring[a.pos:]...), a.ring[:a.pos]...)
}

// RMS returns the root mean square level of the captured window
func (a *Analyzer) RMS() float64 {
	w := a.window()
	if len(w) == 0 {
		return 0
	}
	var sum float64
	for _, x := range w {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(w)))
}

// Bins returns the Hann-windowed magnitude spectrum of the captured window,
// bins 0 through N/2. It returns nil until the window is full.
func (a *Analyzer) Bins() []float64 {
	if !a.filled {
		return nil
	}
	w := a.window()
	n := len(w)
	f, err := fft.New(n)
	if err != nil {
		return nil
	}
	x := make([]complex128, n)
	for i, v := range w {
		hann := (1 - math.Cos(2*math.Pi*float64(i)/float64(n))) / 2
		x[i] = complex(v*hann, 0)
	}
	x = f.Transform(x)

	bins := make([]float64, n/2+1)
	for i := range bins {
		bins[i] = cmplx.Abs(x[i])
	}
	return bins
}

// BinHz returns the width of one bin in Hz
func (a *Analyzer) BinHz() float64 {
	return a.sampleRate / float64(len(a.ring))
}

// DominantFrequency returns the frequency of the strongest non-DC bin, refined
// by parabolic interpolation, or 0 if the window is not full yet
func (a *Analyzer) DominantFrequency() float64 {
	bins := a.Bins()
	if len(bins) < 3 {
		return 0
	}
	k := 1
	for i := 2; i < len(bins); i++ {
		if bins[i] > bins[k] {
			k = i
		}
	}
	offset := 0.0
	if k+1 < len(bins) {
		l, c, r := bins[k-1], bins[k], bins[k+1]
		if d := l - 2*c + r; d != 0 {
			offset = 0.5 * (l - r) / d
		}
	}
	return (float64(k) + offset) * a.BinHz()
}
