// Package render drives a synth.Context sample by sample into a Sink and
// collects statistics about the produced stream.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go-squaresynth/debug"
	"go-squaresynth/synth"
)

// DefaultMaxSeconds bounds a render when the score never runs out of events
const DefaultMaxSeconds = 600

// Progress intervals between debug log lines, about once per second of audio
// with the default interval
const logIntervals = 10

// Options controls a render
type Options struct {
	// MaxSeconds is the hard ceiling on rendered audio. Zero means DefaultMaxSeconds.
	MaxSeconds float64

	// TailSeconds keeps rendering this long after the last event so ringing
	// voices decay instead of being cut. Zero stops at the last event.
	TailSeconds float64

	// ProgressEvery is the number of samples between progress reports and
	// cancellation checks. Zero means a tenth of a second.
	ProgressEvery int

	// OnProgress, when set, receives a snapshot every ProgressEvery samples
	// and once at the end.
	OnProgress func(Progress)
}

// Stats summarizes a finished render
type Stats struct {
	Samples    int
	Seconds    float64
	NonSilent  int
	Peak       float32
	Clipped    int // samples with a channel outside [-1, 1]
	MaxVoices  int
	Exhausted  bool // every event was applied
	HitCeiling bool
}

func (s Stats) String() string {
	return fmt.Sprintf("%d samples (%.2fs), peak %.3f, %d clipped, max %d voices",
		s.Samples, s.Seconds, s.Peak, s.Clipped, s.MaxVoices)
}

// Progress is a point-in-time view of a running render
type Progress struct {
	Samples int
	Ceiling int
	synth.State
}

// Fraction estimates how far through the score the render is, 0-1
func (p Progress) Fraction() float64 {
	if p.Events == 0 {
		return 1
	}
	return float64(p.Cursor) / float64(p.Events)
}

// Run renders sctx into sink until the score is exhausted (plus any tail) or
// the ceiling is reached. Finish is always called exactly once. If ctx is
// cancelled the render stops at the next progress interval and ctx.Err() is
// returned along with the stats so far.
func Run(ctx context.Context, sctx *synth.Context, sink Sink, opts Options) (Stats, error) {
	rate := sctx.SampleRate()
	maxSeconds := opts.MaxSeconds
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxSeconds
	}
	ceiling := int(math.Round(float64(rate) * maxSeconds))
	every := opts.ProgressEvery
	if every <= 0 {
		every = max(rate/10, 1)
	}
	tail := int(math.Round(float64(rate) * opts.TailSeconds))

	debug.Log("render", "start: %d events, rate %d, ceiling %d, tail %d", sctx.Len(), rate, ceiling, tail)

	var stats Stats
	var err error
	tailLeft := tail
	for stats.Samples < ceiling {
		if sctx.Finished() {
			if tailLeft <= 0 {
				break
			}
			tailLeft--
		}

		l, r := sctx.Next()
		stats.observe(l, r, sctx.ActiveVoices())
		if err = sink.Write(l, r); err != nil {
			err = fmt.Errorf("write sample %d: %w", stats.Samples, err)
			break
		}

		if stats.Samples%every == 0 {
			report(opts, stats, ceiling, sctx)
			debug.LogEvery(logIntervals, "render", "sample %d tick %.2f voices %d", stats.Samples, sctx.Tick(), sctx.ActiveVoices())
			if cerr := ctx.Err(); cerr != nil {
				err = cerr
				break
			}
		}
	}

	stats.Exhausted = sctx.Finished()
	stats.HitCeiling = stats.Samples >= ceiling
	stats.Seconds = float64(stats.Samples) / float64(rate)
	report(opts, stats, ceiling, sctx)

	if ferr := sink.Finish(); ferr != nil {
		err = errors.Join(err, fmt.Errorf("finish: %w", ferr))
	}
	debug.Log("render", "done: %s exhausted=%v ceiling=%v err=%v", stats, stats.Exhausted, stats.HitCeiling, err)
	return stats, err
}

func (s *Stats) observe(l, r float32, voices int) {
	s.Samples++
	if l != 0 || r != 0 {
		s.NonSilent++
	}
	al, ar := abs32(l), abs32(r)
	s.Peak = max(s.Peak, al, ar)
	if al > 1 || ar > 1 {
		s.Clipped++
	}
	s.MaxVoices = max(s.MaxVoices, voices)
}

func report(opts Options, stats Stats, ceiling int, sctx *synth.Context) {
	if opts.OnProgress == nil {
		return
	}
	opts.OnProgress(Progress{
		Samples: stats.Samples,
		Ceiling: ceiling,
		State:   sctx.Snapshot(),
	})
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
