package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	gowav "github.com/go-audio/wav"

	"go-squaresynth/midi"
	"go-squaresynth/synth"
)

const rate = 8000

// threeEvents is one A4 held for two beats at 120 bpm, i.e. one second
func threeEvents() []midi.Event {
	return []midi.Event{
		midi.TempoChange{Tick: 0, BPM: 120},
		midi.NoteOn{Tick: 0, Channel: 0, Note: 69, Velocity: 1},
		midi.NoteOff{Tick: 2, Channel: 0, Note: 69},
	}
}

func TestRunStopsAtLastEvent(t *testing.T) {
	var buf Buffer
	stats, err := Run(context.Background(), synth.New(threeEvents(), rate), &buf, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !buf.Finished {
		t.Error("sink was not finished")
	}
	if !stats.Exhausted || stats.HitCeiling {
		t.Errorf("stats: %+v", stats)
	}
	if stats.Samples < rate-2 || stats.Samples > rate+2 {
		t.Errorf("rendered %d samples, want ~%d", stats.Samples, rate)
	}
	if stats.Samples != buf.Frames() {
		t.Errorf("stats say %d samples, sink got %d", stats.Samples, buf.Frames())
	}
	// the last sample is the one where the note-off applied
	if stats.NonSilent != stats.Samples-1 {
		t.Errorf("non-silent %d of %d", stats.NonSilent, stats.Samples)
	}
	if stats.MaxVoices != 1 || stats.Clipped != 0 || stats.Peak <= 0 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestRunCeiling(t *testing.T) {
	events := []midi.Event{
		midi.NoteOn{Tick: 0, Channel: 0, Note: 60, Velocity: 1},
		midi.NoteOff{Tick: 100, Channel: 0, Note: 60},
	}
	var buf Buffer
	stats, err := Run(context.Background(), synth.New(events, rate), &buf, Options{MaxSeconds: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Samples != rate/2 || !stats.HitCeiling || stats.Exhausted {
		t.Errorf("stats: %+v", stats)
	}
	if !buf.Finished {
		t.Error("sink was not finished")
	}
}

func TestRunTail(t *testing.T) {
	events := []midi.Event{midi.NoteOn{Tick: 0, Channel: 0, Note: 60, Velocity: 1}}
	var buf Buffer
	stats, err := Run(context.Background(), synth.New(events, rate), &buf, Options{TailSeconds: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	// one sample applies the note-on, then the tail
	if stats.Samples != 1+rate/4 {
		t.Errorf("got %d samples, want %d", stats.Samples, 1+rate/4)
	}
	if stats.NonSilent != stats.Samples {
		t.Errorf("tail should keep the voice sounding: %+v", stats)
	}
}

func TestRunWithoutTailAbandonsVoices(t *testing.T) {
	events := []midi.Event{midi.NoteOn{Tick: 0, Channel: 0, Note: 60, Velocity: 1}}
	stats, err := Run(context.Background(), synth.New(events, rate), Discard, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Samples != 1 {
		t.Errorf("got %d samples, want 1", stats.Samples)
	}
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	opts := Options{
		ProgressEvery: 100,
		OnProgress: func(p Progress) {
			calls++
			if p.Samples >= 300 {
				cancel()
			}
		},
	}
	var buf Buffer
	stats, err := Run(ctx, synth.New(threeEvents(), rate), &buf, opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if stats.Samples != 300 {
		t.Errorf("stopped after %d samples, want 300", stats.Samples)
	}
	if !buf.Finished {
		t.Error("sink must be finished on cancel")
	}
	if calls != 4 {
		t.Errorf("progress called %d times, want 4", calls)
	}
}

type failingSink struct {
	after    int
	n        int
	finished int
}

func (f *failingSink) Write(l, r float32) error {
	f.n++
	if f.n > f.after {
		return errors.New("disk full")
	}
	return nil
}

func (f *failingSink) Finish() error {
	f.finished++
	return nil
}

func TestRunSinkError(t *testing.T) {
	sink := &failingSink{after: 10}
	_, err := Run(context.Background(), synth.New(threeEvents(), rate), sink, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if sink.finished != 1 {
		t.Errorf("Finish called %d times, want 1", sink.finished)
	}
}

func TestTee(t *testing.T) {
	var a, b Buffer
	stats, err := Run(context.Background(), synth.New(threeEvents(), rate), Tee(&a, &b), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Frames() != stats.Samples || b.Frames() != stats.Samples || !a.Finished || !b.Finished {
		t.Errorf("tee: a=%d b=%d samples=%d", a.Frames(), b.Frames(), stats.Samples)
	}
}

func TestProgressFraction(t *testing.T) {
	var last Progress
	_, err := Run(context.Background(), synth.New(threeEvents(), rate), Discard, Options{
		OnProgress: func(p Progress) { last = p },
	})
	if err != nil {
		t.Fatal(err)
	}
	if last.Fraction() != 1 || last.Events != 3 || last.Ceiling != rate*DefaultMaxSeconds {
		t.Errorf("final progress: %+v", last)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a4.wav")
	var buf Buffer
	stats, err := File(context.Background(), threeEvents(), path, rate, 16, Options{}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// 44-byte header plus 4 bytes per 16-bit stereo frame
	if want := int64(44 + 4*stats.Samples); fi.Size() != want {
		t.Errorf("file size %d, want %d", fi.Size(), want)
	}
	if buf.Frames() != stats.Samples {
		t.Errorf("extra sink got %d frames", buf.Frames())
	}
}

func TestFileEmptyScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	stats, err := File(context.Background(), nil, path, rate, 16, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Samples != 0 || !stats.Exhausted {
		t.Errorf("stats: %+v", stats)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if !gowav.NewDecoder(f).IsValidFile() {
		t.Error("empty render is not a valid wav file")
	}
}

func TestFileFinishesExtrasWhenCreateFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.wav")
	var buf Buffer
	if _, err := File(context.Background(), threeEvents(), path, rate, 16, Options{}, &buf); err == nil {
		t.Fatal("expected an error for an unwritable path")
	}
	if !buf.Finished {
		t.Error("extra sink was not finished")
	}
}
