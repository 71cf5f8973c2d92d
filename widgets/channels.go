package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-squaresynth/synth"
	"go-squaresynth/theme"
)

// MaxPads is the number of voice pads drawn per channel; busier channels
// show a count instead
const MaxPads = 8

// RenderPad renders a single colored pad
func RenderPad(color lipgloss.Color, symbol rune) string {
	return lipgloss.NewStyle().Foreground(color).Render(string(symbol))
}

// RenderVoicePads renders one lit pad per sounding voice, up to MaxPads
func RenderVoicePads(th *theme.Theme, voices int) string {
	var out strings.Builder
	for i := 0; i < MaxPads; i++ {
		if i > 0 {
			out.WriteString(" ")
		}
		if i < voices {
			// later pads get hotter colors
			out.WriteString(RenderPad(th.Color(theme.RoleAccent+0.4*float64(i)/MaxPads), th.Symbols.VoiceOn))
		} else {
			out.WriteString(RenderPad(th.Muted(), th.Symbols.VoiceOff))
		}
	}
	if voices > MaxPads {
		out.WriteString(fmt.Sprintf(" +%d", voices-MaxPads))
	}
	return out.String()
}

// PanPosition maps pan (-1..1, clamped) to a column in a track of width cells
func PanPosition(pan float64, width int) int {
	pan = math.Max(-1, math.Min(1, pan))
	return int(math.Round((pan + 1) / 2 * float64(width-1)))
}

// RenderPan renders a pan track with the knob at the channel's position
func RenderPan(th *theme.Theme, pan float64, width int) string {
	knob := PanPosition(pan, width)
	center := (width - 1) / 2
	track := lipgloss.NewStyle().Foreground(th.Muted())
	var out strings.Builder
	out.WriteString("L")
	for i := 0; i < width; i++ {
		switch {
		case i == knob:
			out.WriteString(RenderPad(th.Active(), th.Symbols.PanKnob))
		case i == center:
			out.WriteString(track.Render(string(th.Symbols.PanCenter)))
		default:
			out.WriteString(track.Render(string(th.Symbols.PanTrack)))
		}
	}
	out.WriteString("R")
	return out.String()
}

// RenderLevel renders volume (0-1) as a bar of width cells
func RenderLevel(th *theme.Theme, volume float64, width int) string {
	full := int(math.Round(math.Max(0, math.Min(1, volume)) * float64(width)))
	on := lipgloss.NewStyle().Foreground(th.Color(theme.RoleFG + 0.5*volume))
	off := lipgloss.NewStyle().Foreground(th.Muted())
	return on.Render(strings.Repeat(string(th.Symbols.LevelFull), full)) +
		off.Render(strings.Repeat(string(th.Symbols.LevelEmpty), width-full))
}

// RenderChannelStrip renders one line: channel number, volume, pan and voices
func RenderChannelStrip(th *theme.Theme, idx int, ch synth.ChannelState) string {
	label := lipgloss.NewStyle().Foreground(th.FG()).Render(fmt.Sprintf("ch%-2d", idx+1))
	return fmt.Sprintf("%s %s %s %s", label, RenderLevel(th, ch.Volume, 8), RenderPan(th, ch.Pan, 9), RenderVoicePads(th, ch.Voices))
}

// RenderChannels renders a strip per channel
func RenderChannels(th *theme.Theme, chs []synth.ChannelState) string {
	lines := make([]string, len(chs))
	for i, ch := range chs {
		lines[i] = RenderChannelStrip(th, i, ch)
	}
	return strings.Join(lines, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
