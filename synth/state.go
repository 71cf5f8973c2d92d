package synth

// State is a copy of the observable parts of a Context
type State struct {
	Time     float64
	Tick     float64
	Tempo    float64
	Cursor   int
	Events   int
	Voices   int
	Channels []ChannelState
}

// ChannelState pairs a channel's mixing parameters with its current polyphony
type ChannelState struct {
	Channel
	Voices int
}

func (c *Context) SampleRate() int   { return int(c.sampleRate) }
func (c *Context) Time() float64     { return c.time }
func (c *Context) Tick() float64     { return c.tick }
func (c *Context) Tempo() float64    { return c.tempo }
func (c *Context) Cursor() int       { return c.cursor }
func (c *Context) Len() int          { return len(c.events) }
func (c *Context) ActiveVoices() int { return len(c.voices) }

// Channel returns channel i. It panics if i is out of range.
func (c *Context) Channel(i int) Channel {
	return c.channels[i]
}

// Channels returns the number of channels
func (c *Context) Channels() int {
	return len(c.channels)
}

// Voices returns a copy of the active voices in the order they started
func (c *Context) Voices() []Voice {
	return append([]Voice(nil), c.voices...)
}

// Snapshot copies the current state. It allocates, so callers should take
// snapshots at reporting intervals rather than per sample.
func (c *Context) Snapshot() State {
	s := State{
		Time:     c.time,
		Tick:     c.tick,
		Tempo:    c.tempo,
		Cursor:   c.cursor,
		Events:   len(c.events),
		Voices:   len(c.voices),
		Channels: make([]ChannelState, len(c.channels)),
	}
	for i, ch := range c.channels {
		s.Channels[i].Channel = ch
	}
	for _, v := range c.voices {
		s.Channels[v.Channel].Voices++
	}
	return s
}
