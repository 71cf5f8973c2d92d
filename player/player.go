//go:build !headless

// Package player plays a render through the default audio device.
package player

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/ebitengine/oto/v3"

	"go-squaresynth/debug"
)

// frames per chunk pushed to the device; about 23ms at 44.1kHz
const chunkFrames = 1024

// Player is a render sink that streams samples to oto. Writes block once the
// device buffer is full, so a render through a Player runs in real time.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	chunk  []byte
	n      int
	done   bool
}

// New opens the default output device at sampleRate, stereo float32
func New(sampleRate int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open audio device", "Cannot open the audio output device"))
	}
	<-ready

	pr, pw := io.Pipe()
	p := &Player{
		ctx:   ctx,
		pw:    pw,
		chunk: make([]byte, chunkFrames*8),
	}
	p.player = ctx.NewPlayer(pr)
	p.player.Play()
	debug.Log("player", "opened device at %d Hz", sampleRate)
	return p, nil
}

func (p *Player) Write(l, r float32) error {
	if p.done {
		return fault.New("player finished")
	}
	binary.LittleEndian.PutUint32(p.chunk[p.n:], math.Float32bits(l))
	binary.LittleEndian.PutUint32(p.chunk[p.n+4:], math.Float32bits(r))
	p.n += 8
	if p.n == len(p.chunk) {
		return p.flush()
	}
	return nil
}

// Finish pushes the remaining samples and waits for the device to drain
func (p *Player) Finish() error {
	if p.done {
		return nil
	}
	p.done = true
	err := p.flush()
	p.pw.Close()

	for p.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	if cerr := p.player.Close(); err == nil && cerr != nil {
		err = fault.Wrap(cerr, fmsg.With("close audio player"))
	}
	debug.Log("player", "drained")
	return err
}

func (p *Player) flush() error {
	if p.n == 0 {
		return nil
	}
	_, err := p.pw.Write(p.chunk[:p.n])
	p.n = 0
	if err != nil {
		return fault.Wrap(err, fmsg.With("stream to audio device"))
	}
	return nil
}
