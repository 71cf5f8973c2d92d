package synth

import "math"

const (
	// DefaultVolume is the volume a channel starts with (MIDI CC7 = 100)
	DefaultVolume = 100.0 / 127.0

	// DefaultTempo is the tempo before the first tempo change, in BPM
	DefaultTempo = 120.0

	velocityGain = 0.05
	masterGain   = 0.1
)

// Channel holds the mixing parameters shared by every voice routed through it
type Channel struct {
	Volume float64 // 0-1
	Pan    float64 // -1 left .. 1 right
}

func newChannels(n int) []Channel {
	chs := make([]Channel, n)
	for i := range chs {
		chs[i] = Channel{Volume: DefaultVolume}
	}
	return chs
}

// Voice is one sounding note: a square oscillator plus its decay envelope
type Voice struct {
	Start    float64 // wall-clock seconds at note-on
	Channel  int
	Note     int
	Phase    float64 // 0 <= Phase < 1
	PhaseInc float64 // cycles per sample
	Gain     float64
}

func newVoice(start float64, channel, note int, velocity, sampleRate float64) Voice {
	return Voice{
		Start:    start,
		Channel:  channel,
		Note:     note,
		PhaseInc: NoteFrequency(note) / sampleRate,
		Gain:     velocity * velocityGain,
	}
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note (A4 = 69 = 440 Hz)
func NoteFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// square is the two-level oscillator: +1 for the first half of the cycle, -1 after
func (v *Voice) square() float64 {
	if v.Phase < 0.5 {
		return 1
	}
	return -1
}

// Envelope is the amplitude of a voice that started at start, evaluated at
// now. It decays hyperbolically from 1 toward 0.2 and has no release.
func Envelope(start, now float64) float64 {
	return 0.8/(1+4*(now-start)) + 0.2
}

func (v *Voice) advance() {
	_, v.Phase = math.Modf(v.Phase + v.PhaseInc)
}
