package midi

import (
	"io"
	"math"
	"os"
	"sort"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-squaresynth/debug"
)

// Controller numbers the loader understands
const (
	ccVolume = 7
	ccPan    = 10
)

// LoadFile reads a Standard MIDI File and returns its events sorted by tick
func LoadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("open score", "Score file "+path+" does not exist"),
				ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("open score"))
	}
	defer f.Close()

	events, err := Load(f)
	if err != nil {
		return nil, err
	}
	debug.Log("score", "loaded %s: %d events", path, len(events))
	return events, nil
}

// Load parses SMF data from r
func Load(r io.Reader) ([]Event, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse smf", "The file is not a readable Standard MIDI File"),
			ftag.With(ftag.InvalidArgument))
	}
	return FromSMF(s)
}

// FromSMF flattens every track of s into one event list, sorted by tick.
// Events sharing a tick keep track order, then file order.
func FromSMF(s *smf.SMF) ([]Event, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return nil, fault.New("unsupported time format",
			fmsg.WithDesc("unsupported time format", "Only metric (ticks per quarter note) timing is supported"),
			ftag.With(ftag.InvalidArgument))
	}
	resolution := float64(mt)

	var events []Event
	for ti, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			tick := float64(abs) / resolution
			if e := convert(tick, ev.Message); e != nil {
				events = append(events, e)
			}
		}
		debug.Log("score", "track %d: %d ticks", ti, abs)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventTick() < events[j].EventTick()
	})

	if err := Validate(events); err != nil {
		return nil, err
	}
	return events, nil
}

// convert maps one SMF message to a score event, or nil if the message does
// not affect rendering
func convert(tick float64, msg smf.Message) Event {
	var bpm float64
	if msg.GetMetaTempo(&bpm) {
		return TempoChange{Tick: tick, BPM: bpm}
	}

	var channel, key, value uint8
	m := gomidi.Message(msg)
	switch {
	case m.GetNoteOn(&channel, &key, &value):
		// running-status note-offs arrive as velocity 0 note-ons
		if value == 0 {
			return NoteOff{Tick: tick, Channel: int(channel), Note: int(key)}
		}
		return NoteOn{Tick: tick, Channel: int(channel), Note: int(key), Velocity: float64(value) / 127}
	case m.GetNoteOff(&channel, &key, &value):
		return NoteOff{Tick: tick, Channel: int(channel), Note: int(key)}
	case m.GetControlChange(&channel, &key, &value):
		switch key {
		case ccVolume:
			return VolumeChange{Tick: tick, Channel: int(channel), Volume: float64(value) / 127}
		case ccPan:
			return PanChange{Tick: tick, Channel: int(channel), Pan: math.Max((float64(value)-64)/63, -1)}
		}
	}
	return nil
}
