package render

import (
	"context"
	"errors"

	"go-squaresynth/midi"
	"go-squaresynth/synth"
	"go-squaresynth/wav"
)

// File renders events into a WAV file at path. Extra sinks, if any, receive
// the same stream. File finishes every extra sink, also when the output file
// cannot be created.
func File(ctx context.Context, events []midi.Event, path string, sampleRate, bitDepth int, opts Options, extra ...Sink) (Stats, error) {
	w, err := wav.Create(path, sampleRate, bitDepth)
	if err != nil {
		if ferr := Tee(extra...).Finish(); ferr != nil {
			err = errors.Join(err, ferr)
		}
		return Stats{}, err
	}
	var sink Sink = w
	if len(extra) > 0 {
		sink = Tee(append([]Sink{w}, extra...)...)
	}
	return Run(ctx, synth.New(events, sampleRate), sink, opts)
}
