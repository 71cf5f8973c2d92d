package synth

import (
	"math"
	"testing"

	"go-squaresynth/midi"
)

const sampleRate = 44100

func TestNoteOnComputesOscillator(t *testing.T) {
	c := New([]midi.Event{midi.NoteOn{Tick: 0, Channel: 0, Note: 69, Velocity: 1}}, sampleRate)
	c.Next()

	vs := c.Voices()
	if len(vs) != 1 {
		t.Fatalf("got %d voices, want 1", len(vs))
	}
	if math.Abs(vs[0].PhaseInc-440.0/sampleRate) > eps {
		t.Errorf("PhaseInc: got %v, want %v", vs[0].PhaseInc, 440.0/sampleRate)
	}
	if vs[0].Gain != 0.05 {
		t.Errorf("Gain: got %v, want 0.05", vs[0].Gain)
	}
	if vs[0].Start != 0 {
		t.Errorf("Start: got %v, want 0", vs[0].Start)
	}
}

func TestFirstSampleLevel(t *testing.T) {
	c := New([]midi.Event{midi.NoteOn{Tick: 0, Channel: 0, Note: 60, Velocity: 1}}, sampleRate)
	l, r := c.Next()

	// phase 0 → +1, envelope 1 at note-on, centered
	want := DefaultVolume * 0.05 * 0.1 * math.Sqrt2 / 2
	if math.Abs(float64(l)-want) > 1e-7 || math.Abs(float64(r)-want) > 1e-7 {
		t.Errorf("got (%v, %v), want (%v, %v)", l, r, want, want)
	}
}

func TestPhaseWrap(t *testing.T) {
	for _, d := range []float64{0, 0.25, 0.3, 440.0 / sampleRate, 0.999, 1.5} {
		v := Voice{PhaseInc: d}
		const n = 1000
		for i := 0; i < n; i++ {
			v.advance()
			if v.Phase < 0 || v.Phase >= 1 {
				t.Fatalf("d=%v: phase %v escaped [0,1)", d, v.Phase)
			}
		}
		_, want := math.Modf(n * d)
		diff := math.Abs(v.Phase - want)
		if diff > 1e-9 && 1-diff > 1e-9 {
			t.Errorf("d=%v: phase %v, want %v", d, v.Phase, want)
		}
	}
}

func TestEnvelope(t *testing.T) {
	tests := []struct {
		elapsed, want float64
	}{
		{0, 1},
		{0.25, 0.6},
		{1, 0.36},
		{1e9, 0.2},
	}
	for _, tt := range tests {
		if got := Envelope(3, 3+tt.elapsed); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Envelope after %vs: got %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestNoteOnOffSameTickIsSilent(t *testing.T) {
	c := New([]midi.Event{
		midi.NoteOn{Tick: 0, Channel: 0, Note: 64, Velocity: 1},
		midi.NoteOff{Tick: 0, Channel: 0, Note: 64},
	}, sampleRate)

	l, r := c.Next()
	if l != 0 || r != 0 {
		t.Errorf("got (%v, %v), want silence", l, r)
	}
	if c.ActiveVoices() != 0 {
		t.Errorf("got %d voices, want 0", c.ActiveVoices())
	}
	if !c.Finished() {
		t.Error("expected Finished after both events were applied")
	}
}

func TestStackedVoicesReleaseOldestFirst(t *testing.T) {
	c := New([]midi.Event{
		midi.NoteOn{Tick: 0, Channel: 1, Note: 60, Velocity: 1},
		midi.NoteOn{Tick: 0.5, Channel: 1, Note: 60, Velocity: 0.5},
		midi.NoteOff{Tick: 0.5, Channel: 1, Note: 60},
	}, sampleRate)

	for !c.Finished() {
		c.Next()
	}
	vs := c.Voices()
	if len(vs) != 1 {
		t.Fatalf("got %d voices, want 1", len(vs))
	}
	if vs[0].Start == 0 || vs[0].Gain != 0.5*0.05 {
		t.Errorf("the later voice should survive, got %+v", vs[0])
	}
}

func TestDanglingNoteOffIgnored(t *testing.T) {
	c := New([]midi.Event{
		midi.NoteOn{Tick: 0, Channel: 0, Note: 60, Velocity: 1},
		midi.NoteOff{Tick: 0, Channel: 0, Note: 61},
		midi.NoteOff{Tick: 0, Channel: 1, Note: 60},
	}, sampleRate)
	c.Next()
	if c.ActiveVoices() != 1 {
		t.Errorf("got %d voices, want 1", c.ActiveVoices())
	}
}

func TestChannelParameters(t *testing.T) {
	c := New([]midi.Event{
		midi.VolumeChange{Tick: 0, Channel: 2, Volume: 0.5},
		midi.PanChange{Tick: 0, Channel: 2, Pan: -1},
		midi.NoteOn{Tick: 0, Channel: 2, Note: 60, Velocity: 1},
	}, sampleRate)

	if c.Channels() != 3 {
		t.Fatalf("got %d channels, want 3", c.Channels())
	}
	if c.Channel(0).Volume != DefaultVolume || c.Channel(0).Pan != 0 {
		t.Errorf("channel 0 defaults: %+v", c.Channel(0))
	}

	l, r := c.Next()
	if r != 0 {
		t.Errorf("hard-left voice leaked right: %v", r)
	}
	want := 0.5 * 0.05 * 0.1
	if math.Abs(float64(l)-want) > 1e-7 {
		t.Errorf("left: got %v, want %v", l, want)
	}
}

func TestTempoAppliesFromNextAdvance(t *testing.T) {
	c := New([]midi.Event{
		midi.TempoChange{Tick: 0, BPM: 240},
		midi.NoteOn{Tick: 1, Channel: 0, Note: 60, Velocity: 1},
	}, sampleRate)

	c.Next()
	if got, want := c.Tick(), 240.0/60/sampleRate; math.Abs(got-want) > eps {
		t.Errorf("tick after one sample: got %v, want %v", got, want)
	}
	if c.Tempo() != 240 {
		t.Errorf("tempo: got %v", c.Tempo())
	}

	// beat 1 at 240 bpm is a quarter second in
	n := 0
	for !c.Finished() {
		c.Next()
		n++
	}
	if n < sampleRate/4-2 || n > sampleRate/4+2 {
		t.Errorf("note-on at beat 1 applied after %d samples, want ~%d", n, sampleRate/4)
	}
}

func TestEndToEnd(t *testing.T) {
	c := New([]midi.Event{
		midi.TempoChange{Tick: 0, BPM: 120},
		midi.NoteOn{Tick: 0, Channel: 0, Note: 69, Velocity: 1},
		midi.NoteOff{Tick: 2, Channel: 0, Note: 69},
	}, sampleRate)

	var n, nonSilent, released int
	for ; n < sampleRate*3 && !c.Finished(); n++ {
		l, r := c.Next()
		if n == 0 {
			if inc := c.Voices()[0].PhaseInc; math.Abs(inc-0.00997732426) > 1e-9 {
				t.Errorf("PhaseInc: got %v", inc)
			}
		}
		if l != 0 || r != 0 {
			nonSilent++
		}
		if c.ActiveVoices() == 0 && released == 0 {
			released = n
		}
	}

	if !c.Finished() {
		t.Fatal("score did not finish")
	}
	if released < sampleRate-2 || released > sampleRate+2 {
		t.Errorf("voice released at sample %d, want ~%d (1.0s)", released, sampleRate)
	}
	if math.Abs(c.Time()-1) > 1e-3 {
		t.Errorf("finished at %vs, want ~1s", c.Time())
	}

	// the engine keeps producing samples past the end; they stay silent
	before := nonSilent
	for i := 0; i < 1000; i++ {
		if l, r := c.Next(); l != 0 || r != 0 {
			nonSilent++
		}
	}
	if nonSilent != before {
		t.Errorf("non-silent count grew from %d to %d after release", before, nonSilent)
	}
	if nonSilent != released {
		t.Errorf("non-silent samples %d, want %d", nonSilent, released)
	}
}

func TestFinishedIsIdempotent(t *testing.T) {
	c := New([]midi.Event{midi.NoteOn{Tick: 1, Channel: 0, Note: 60, Velocity: 1}}, sampleRate)
	if c.Finished() != c.Finished() || c.Finished() {
		t.Error("fresh context with pending events reported finished")
	}
	for !c.Finished() {
		c.Next()
	}
	if !c.Finished() || !c.Finished() {
		t.Error("Finished changed between calls")
	}
	if c.Cursor() != c.Len() {
		t.Errorf("cursor %d, len %d", c.Cursor(), c.Len())
	}
}

func TestEmptyScore(t *testing.T) {
	c := New(nil, sampleRate)
	if !c.Finished() {
		t.Error("empty score should be finished")
	}
	if l, r := c.Next(); l != 0 || r != 0 {
		t.Errorf("got (%v, %v), want silence", l, r)
	}
}

func TestDeterministic(t *testing.T) {
	events := []midi.Event{
		midi.TempoChange{Tick: 0, BPM: 133},
		midi.NoteOn{Tick: 0, Channel: 0, Note: 48, Velocity: 0.8},
		midi.PanChange{Tick: 0.25, Channel: 1, Pan: 0.3},
		midi.NoteOn{Tick: 0.25, Channel: 1, Note: 67, Velocity: 0.6},
		midi.NoteOn{Tick: 0.5, Channel: 1, Note: 71, Velocity: 0.6},
		midi.NoteOff{Tick: 1, Channel: 0, Note: 48},
		midi.NoteOff{Tick: 1.5, Channel: 1, Note: 67},
		midi.NoteOff{Tick: 1.5, Channel: 1, Note: 71},
	}
	render := func() []float32 {
		c := New(events, sampleRate)
		var out []float32
		for !c.Finished() {
			l, r := c.Next()
			out = append(out, l, r)
		}
		return out
	}
	a, b := render(), render()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

// Every event kind must be handled by apply; an unhandled kind panics.
func TestDispatchHandlesEveryKind(t *testing.T) {
	samples := map[midi.Kind]midi.Event{
		midi.KindNoteOn:  midi.NoteOn{Channel: 0, Note: 60, Velocity: 1},
		midi.KindNoteOff: midi.NoteOff{Channel: 0, Note: 60},
		midi.KindVolume:  midi.VolumeChange{Channel: 0, Volume: 1},
		midi.KindPan:     midi.PanChange{Channel: 0, Pan: 1},
		midi.KindTempo:   midi.TempoChange{BPM: 100},
	}
	for _, k := range midi.Kinds {
		e, ok := samples[k]
		if !ok {
			t.Errorf("no sample event for kind %v", k)
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("kind %v not handled: %v", k, r)
				}
			}()
			New([]midi.Event{e}, sampleRate).Next()
		}()
	}
}

func TestSnapshot(t *testing.T) {
	c := New([]midi.Event{
		midi.NoteOn{Tick: 0, Channel: 1, Note: 60, Velocity: 1},
		midi.NoteOn{Tick: 0, Channel: 1, Note: 64, Velocity: 1},
		midi.PanChange{Tick: 0, Channel: 0, Pan: 0.5},
	}, sampleRate)
	c.Next()
	s := c.Snapshot()
	if s.Voices != 2 || s.Channels[1].Voices != 2 || s.Channels[0].Voices != 0 {
		t.Errorf("voice counts: %+v", s)
	}
	if s.Channels[0].Pan != 0.5 || s.Cursor != 3 || s.Events != 3 {
		t.Errorf("snapshot: %+v", s)
	}
}

func BenchmarkNext16Voices(b *testing.B) {
	var events []midi.Event
	for i := 0; i < 16; i++ {
		events = append(events, midi.NoteOn{Channel: i % 4, Note: 48 + i, Velocity: 0.7})
	}
	events = append(events, midi.NoteOff{Tick: 1e9, Channel: 0, Note: 0})
	c := New(events, sampleRate)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Next()
	}
}
