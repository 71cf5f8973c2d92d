package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Channel strip voice pads
	VoiceOn  rune // ■ a voice is sounding
	VoiceOff rune // □ idle slot

	// Pan track
	PanTrack  rune // ─
	PanCenter rune // ┼
	PanKnob   rune // ●

	// Volume bar
	LevelFull  rune // █
	LevelEmpty rune // ░
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			VoiceOn:  '■',
			VoiceOff: '□',

			PanTrack:  '─',
			PanCenter: '┼',
			PanKnob:   '●',

			LevelFull:  '█',
			LevelEmpty: '░',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.25
	RoleFG      = 0.5
	RoleAccent  = 0.6
	RoleActive  = 0.75
	RoleWarning = 0.85
	RoleSuccess = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// Gradient returns the palette endpoints used for the progress bar
func (t *Theme) Gradient() (from, to string) {
	return t.Palette.Lookup(RoleMuted).Hex(), t.Palette.Lookup(RoleSuccess).Hex()
}
