package midi

import "fmt"

// Kind identifies an event variant
type Kind uint8

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindVolume
	KindPan
	KindTempo
)

// Kinds lists every event variant. Anything that switches over events is
// expected to handle all of them.
var Kinds = []Kind{KindNoteOn, KindNoteOff, KindVolume, KindPan, KindTempo}

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindVolume:
		return "volume"
	case KindPan:
		return "pan"
	case KindTempo:
		return "tempo"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is a score event positioned in quarter notes from the start of the piece.
// The set of implementations is closed: NoteOn, NoteOff, VolumeChange,
// PanChange and TempoChange.
type Event interface {
	EventTick() float64
	Kind() Kind
	event()
}

// NoteOn starts a voice. Velocity is normalized to 0-1.
type NoteOn struct {
	Tick     float64
	Channel  int
	Note     int
	Velocity float64
}

// NoteOff stops the oldest voice sounding the same channel/note.
type NoteOff struct {
	Tick    float64
	Channel int
	Note    int
}

// VolumeChange sets a channel's volume (0-1)
type VolumeChange struct {
	Tick    float64
	Channel int
	Volume  float64
}

// PanChange sets a channel's pan position (-1 left, 1 right)
type PanChange struct {
	Tick    float64
	Channel int
	Pan     float64
}

// TempoChange sets the tempo in beats per minute
type TempoChange struct {
	Tick float64
	BPM  float64
}

func (e NoteOn) EventTick() float64       { return e.Tick }
func (e NoteOff) EventTick() float64      { return e.Tick }
func (e VolumeChange) EventTick() float64 { return e.Tick }
func (e PanChange) EventTick() float64    { return e.Tick }
func (e TempoChange) EventTick() float64  { return e.Tick }

func (NoteOn) Kind() Kind       { return KindNoteOn }
func (NoteOff) Kind() Kind      { return KindNoteOff }
func (VolumeChange) Kind() Kind { return KindVolume }
func (PanChange) Kind() Kind    { return KindPan }
func (TempoChange) Kind() Kind  { return KindTempo }

func (NoteOn) event()       {}
func (NoteOff) event()      {}
func (VolumeChange) event() {}
func (PanChange) event()    {}
func (TempoChange) event()  {}

func (e NoteOn) String() string {
	return fmt.Sprintf("%9.3f note-on  ch=%-2d note=%-3d vel=%.3f", e.Tick, e.Channel, e.Note, e.Velocity)
}

func (e NoteOff) String() string {
	return fmt.Sprintf("%9.3f note-off ch=%-2d note=%-3d", e.Tick, e.Channel, e.Note)
}

func (e VolumeChange) String() string {
	return fmt.Sprintf("%9.3f volume   ch=%-2d vol=%.3f", e.Tick, e.Channel, e.Volume)
}

func (e PanChange) String() string {
	return fmt.Sprintf("%9.3f pan      ch=%-2d pan=%+.3f", e.Tick, e.Channel, e.Pan)
}

func (e TempoChange) String() string {
	return fmt.Sprintf("%9.3f tempo    bpm=%.2f", e.Tick, e.BPM)
}

// ChannelOf returns the channel an event addresses. Tempo changes are global
// and report ok=false.
func ChannelOf(e Event) (ch int, ok bool) {
	switch e := e.(type) {
	case NoteOn:
		return e.Channel, true
	case NoteOff:
		return e.Channel, true
	case VolumeChange:
		return e.Channel, true
	case PanChange:
		return e.Channel, true
	}
	return 0, false
}

// ChannelCount returns one more than the highest channel index referenced by
// any event, or 0 if no event addresses a channel.
func ChannelCount(events []Event) int {
	n := 0
	for _, e := range events {
		if ch, ok := ChannelOf(e); ok && ch+1 > n {
			n = ch + 1
		}
	}
	return n
}
