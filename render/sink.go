package render

import "errors"

// Sink receives the rendered stream: one Write per stereo sample, then a
// single Finish after the last one.
type Sink interface {
	Write(l, r float32) error
	Finish() error
}

// Tee fans every sample out to all sinks. Write stops at the first failing
// sink; Finish finishes every sink and joins their errors.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Write(l, r float32) error {
	for _, s := range t {
		if err := s.Write(l, r); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Finish() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Finish())
	}
	return errors.Join(errs...)
}

// Discard is a Sink that drops every sample
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(l, r float32) error { return nil }
func (discard) Finish() error            { return nil }

// Buffer collects samples in memory, interleaved left/right
type Buffer struct {
	Samples  []float32
	Finished bool
}

func (b *Buffer) Write(l, r float32) error {
	b.Samples = append(b.Samples, l, r)
	return nil
}

func (b *Buffer) Finish() error {
	b.Finished = true
	return nil
}

// Frames returns the number of stereo frames collected
func (b *Buffer) Frames() int {
	return len(b.Samples) / 2
}
