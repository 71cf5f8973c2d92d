package main

import (
	"fmt"
	"time"

	"go-squaresynth/midi"
	"go-squaresynth/render"
	"go-squaresynth/spectrum"
)

func printSummary(input, output string, s midi.Summary, seconds float64) {
	fmt.Printf("Rendering: %s -> %s\n", input, output)
	fmt.Printf("  Events: %d (%d on, %d off, %d volume, %d pan, %d tempo)\n",
		s.Events, s.Counts[midi.KindNoteOn], s.Counts[midi.KindNoteOff],
		s.Counts[midi.KindVolume], s.Counts[midi.KindPan], s.Counts[midi.KindTempo])
	fmt.Printf("  Channels: %d, beats: %.1f, tempo: %.1f bpm, length: %s\n",
		s.Channels, s.LastTick, s.Tempo, time.Duration(seconds*float64(time.Second)).Round(time.Millisecond))
}

// plainProgress prints a line every tenth of the score
func plainProgress() func(render.Progress) {
	next := 0.1
	return func(p render.Progress) {
		if f := p.Fraction(); f >= next {
			fmt.Printf("  %3.0f%%  %7.2fs  beat %8.2f  voices %d\n", f*100, p.Time, p.Tick, p.Voices)
			for next <= f {
				next += 0.1
			}
		}
	}
}

func printStats(s render.Stats) {
	fmt.Printf("Done: %s\n", s)
	if s.HitCeiling && !s.Exhausted {
		fmt.Println("  Warning: stopped at the maximum duration before the score ended")
	}
	if s.Clipped > 0 {
		fmt.Printf("  Warning: %d samples clipped\n", s.Clipped)
	}
}

func printAnalysis(a *spectrum.Analyzer) {
	fmt.Printf("Analysis: peak %.4f, rms %.4f", a.Peak(), a.RMS())
	if f := a.DominantFrequency(); f > 0 {
		fmt.Printf(", dominant %.1f Hz", f)
	}
	fmt.Println()
}
