//go:build headless

package player

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Player is unavailable in headless builds
type Player struct{}

// New always fails in headless builds
func New(sampleRate int) (*Player, error) {
	return nil, fault.New("audio output not compiled in",
		fmsg.WithDesc("headless build", "This build has no audio output; render to a file instead"),
		ftag.With(ftag.InvalidArgument))
}

func (p *Player) Write(l, r float32) error { return nil }
func (p *Player) Finish() error            { return nil }
