// Package synth is the event-driven square-wave engine. A Context walks a
// tick-sorted event list in lock-step with sample generation and mixes the
// sounding voices into stereo samples.
package synth

import (
	"go-squaresynth/midi"
)

// Context owns all mutable render state. It is not safe for concurrent use;
// the render loop owns it for its whole lifetime.
type Context struct {
	sampleRate float64

	events []midi.Event
	cursor int

	channels []Channel
	voices   []Voice

	time  float64 // seconds
	tick  float64 // quarter notes
	tempo float64 // BPM
}

// New creates a Context for events, which must be sorted by tick. The channel
// array is sized once from the events so every channel index they reference
// is valid.
func New(events []midi.Event, sampleRate int) *Context {
	return &Context{
		sampleRate: float64(sampleRate),
		events:     events,
		channels:   newChannels(midi.ChannelCount(events)),
		tempo:      DefaultTempo,
	}
}

// Next produces one stereo sample: pending events are applied first, then the
// voices are mixed and every clock advances by one sample.
func (c *Context) Next() (l, r float32) {
	c.dispatch()

	var suml, sumr float64
	for i := range c.voices {
		v := &c.voices[i]
		ch := &c.channels[v.Channel]
		s := v.square() * ch.Volume * v.Gain * Envelope(v.Start, c.time) * masterGain
		vl, vr := Pan(ch.Pan, s)
		suml += vl
		sumr += vr
		v.advance()
	}

	c.tick += c.tempo / 60 / c.sampleRate
	c.time += 1 / c.sampleRate
	return float32(suml), float32(sumr)
}

// Finished reports whether every event has been applied. Voices still
// sounding at that point are not rendered further by the engine.
func (c *Context) Finished() bool {
	return c.cursor >= len(c.events)
}

// dispatch applies every event whose tick has been reached, in order
func (c *Context) dispatch() {
	for c.cursor < len(c.events) {
		e := c.events[c.cursor]
		if e.EventTick() > c.tick {
			return
		}
		c.apply(e)
		c.cursor++
	}
}

func (c *Context) apply(e midi.Event) {
	switch e := e.(type) {
	case midi.NoteOn:
		c.voices = append(c.voices, newVoice(c.time, e.Channel, e.Note, e.Velocity, c.sampleRate))
	case midi.NoteOff:
		c.release(e.Channel, e.Note)
	case midi.VolumeChange:
		c.channels[e.Channel].Volume = e.Volume
	case midi.PanChange:
		c.channels[e.Channel].Pan = e.Pan
	case midi.TempoChange:
		c.tempo = e.BPM
	default:
		panic("synth: unhandled event " + e.Kind().String())
	}
}

// release removes the oldest voice playing note on channel. Stacked voices on
// the same key are released one per call, in the order they started.
func (c *Context) release(channel, note int) {
	for i := range c.voices {
		if c.voices[i].Channel == channel && c.voices[i].Note == note {
			c.voices = append(c.voices[:i], c.voices[i+1:]...)
			return
		}
	}
}
