package midi

import (
	"fmt"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Validate checks the invariants the synthesis engine relies on but does not
// enforce itself: ticks are finite and non-decreasing, tempos are positive,
// channels are non-negative and levels are in range.
func Validate(events []Event) error {
	prev := math.Inf(-1)
	for i, e := range events {
		tick := e.EventTick()
		if math.IsNaN(tick) || math.IsInf(tick, 0) {
			return invalid(i, e, "tick is not finite")
		}
		if tick < prev {
			return invalid(i, e, fmt.Sprintf("tick %.3f precedes %.3f", tick, prev))
		}
		prev = tick

		if ch, ok := ChannelOf(e); ok && ch < 0 {
			return invalid(i, e, "negative channel")
		}

		switch e := e.(type) {
		case NoteOn:
			if e.Velocity < 0 || e.Velocity > 1 {
				return invalid(i, e, "velocity out of range")
			}
		case NoteOff:
		case VolumeChange:
			if e.Volume < 0 || e.Volume > 1 {
				return invalid(i, e, "volume out of range")
			}
		case PanChange:
			if math.IsNaN(e.Pan) {
				return invalid(i, e, "pan is NaN")
			}
		case TempoChange:
			if !(e.BPM > 0) || math.IsInf(e.BPM, 0) {
				return invalid(i, e, "tempo must be positive")
			}
		}
	}
	return nil
}

func invalid(i int, e Event, reason string) error {
	return fault.New(fmt.Sprintf("event %d (%s): %s", i, e.Kind(), reason),
		fmsg.WithDesc("invalid score", fmt.Sprintf("The score contains an invalid %s event at beat %.3f: %s", e.Kind(), e.EventTick(), reason)),
		ftag.With(ftag.InvalidArgument))
}

// Summary describes a loaded score
type Summary struct {
	Events   int
	Counts   map[Kind]int
	Channels int
	LastTick float64
	Tempo    float64 // first tempo in effect, 120 when the score sets none at tick 0
}

// Summarize computes a Summary for events
func Summarize(events []Event) Summary {
	s := Summary{
		Events:   len(events),
		Counts:   make(map[Kind]int, len(Kinds)),
		Channels: ChannelCount(events),
		Tempo:    120,
	}
	for _, e := range events {
		s.Counts[e.Kind()]++
		s.LastTick = e.EventTick()
		if t, ok := e.(TempoChange); ok && t.Tick == 0 {
			s.Tempo = t.BPM
		}
	}
	return s
}

// Seconds estimates the wall-clock length of the score by walking its tempo map
func Seconds(events []Event) float64 {
	var secs, tick float64
	tempo := 120.0
	for _, e := range events {
		t := e.EventTick()
		secs += (t - tick) * 60 / tempo
		tick = t
		if tc, ok := e.(TempoChange); ok {
			tempo = tc.BPM
		}
	}
	return secs
}
