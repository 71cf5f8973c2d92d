// Package wav writes rendered stereo samples to PCM WAV files.
package wav

import (
	"io"
	"math"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"go-squaresynth/debug"
)

const (
	channels  = 2
	pcmFormat = 1
	// frames buffered before handing them to the encoder
	chunkFrames = 4096
)

// ErrFinished is returned by Write and Finish once the writer has been finished
var ErrFinished = fault.New("wav writer already finished", ftag.With(ftag.Internal))

// Writer encodes stereo float samples as integer PCM
type Writer struct {
	enc      *wav.Encoder
	closer   io.Closer
	buf      *audio.IntBuffer
	scale    float64
	lo, hi   int
	frames   int
	finished bool
}

// SupportedBitDepth reports whether bits can be written
func SupportedBitDepth(bits int) bool {
	return bits == 16 || bits == 24
}

// Create opens path for writing and returns a Writer encoding to it
func Create(path string, sampleRate, bitDepth int) (*Writer, error) {
	if !SupportedBitDepth(bitDepth) {
		return nil, fault.New("unsupported bit depth",
			fmsg.WithDesc("unsupported bit depth", "Bit depth must be 16 or 24"),
			ftag.With(ftag.InvalidArgument))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("create wav", "Cannot create output file "+path))
	}
	w := NewWriter(f, sampleRate, bitDepth)
	w.closer = f
	debug.Log("wav", "writing %s: %d Hz, %d bit", path, sampleRate, bitDepth)
	return w, nil
}

// NewWriter returns a Writer encoding to ws. The caller owns ws.
func NewWriter(ws io.WriteSeeker, sampleRate, bitDepth int) *Writer {
	full := 1<<(bitDepth-1) - 1
	return &Writer{
		enc: wav.NewEncoder(ws, sampleRate, bitDepth, channels, pcmFormat),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, 0, chunkFrames*channels),
			SourceBitDepth: bitDepth,
		},
		scale: float64(full),
		lo:    -full - 1,
		hi:    full,
	}
}

// Write appends one stereo frame
func (w *Writer) Write(l, r float32) error {
	if w.finished {
		return ErrFinished
	}
	w.buf.Data = append(w.buf.Data, w.quantize(l), w.quantize(r))
	w.frames++
	if len(w.buf.Data) >= chunkFrames*channels {
		return w.flush()
	}
	return nil
}

// Finish flushes buffered frames, fixes up the header sizes and closes the
// file if the Writer opened it
func (w *Writer) Finish() error {
	if w.finished {
		return ErrFinished
	}
	w.finished = true

	err := w.flush()
	if err == nil && w.frames == 0 {
		// the encoder only writes the RIFF header on its first Write
		if werr := w.enc.Write(w.buf); werr != nil {
			err = fault.Wrap(werr, fmsg.WithDesc("encode wav", "Failed writing audio header"))
		}
	}
	if cerr := w.enc.Close(); err == nil && cerr != nil {
		err = fault.Wrap(cerr, fmsg.With("close wav encoder"))
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil && cerr != nil {
			err = fault.Wrap(cerr, fmsg.With("close wav file"))
		}
	}
	debug.Log("wav", "finished: %d frames", w.frames)
	return err
}

// Frames returns the number of frames written so far
func (w *Writer) Frames() int {
	return w.frames
}

func (w *Writer) flush() error {
	if len(w.buf.Data) == 0 {
		return nil
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("encode wav", "Failed writing audio data"))
	}
	w.buf.Data = w.buf.Data[:0]
	return nil
}

// quantize scales x to the integer range, saturating instead of wrapping
func (w *Writer) quantize(x float32) int {
	v := int(math.Round(float64(x) * w.scale))
	return min(max(v, w.lo), w.hi)
}
