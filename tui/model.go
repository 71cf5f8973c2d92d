package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-squaresynth/debug"
	"go-squaresynth/render"
	"go-squaresynth/theme"
	"go-squaresynth/widgets"
)

// Minimum time between progress messages sent to the program
const progressInterval = 50 * time.Millisecond

// ProgressMsg carries a render snapshot
type ProgressMsg render.Progress

// DoneMsg is sent once when the render returns
type DoneMsg struct {
	Stats render.Stats
	Err   error
}

type keyMap struct {
	Abort key.Binding
}

var keys = keyMap{
	Abort: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "abort render"),
	),
}

type Model struct {
	Theme    *theme.Theme
	Input    string
	Output   string
	cancel   context.CancelFunc
	bar      progress.Model
	last     render.Progress
	started  time.Time
	aborting bool
	done     *DoneMsg
}

func NewModel(th *theme.Theme, input, output string, cancel context.CancelFunc) Model {
	from, to := th.Gradient()
	return Model{
		Theme:   th,
		Input:   input,
		Output:  output,
		cancel:  cancel,
		bar:     progress.New(progress.WithGradient(from, to), progress.WithWidth(40)),
		started: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Abort) && !m.aborting {
			debug.Log("tui", "abort requested")
			m.aborting = true
			if m.cancel != nil {
				m.cancel()
			}
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(60, msg.Width-20))

	case ProgressMsg:
		m.last = render.Progress(msg)

	case DoneMsg:
		m.done = &msg
		return m, tea.Quit
	}

	return m, nil
}

// Done returns the render result, or nil while rendering
func (m Model) Done() *DoneMsg {
	return m.done
}

func (m Model) View() string {
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	p := m.last
	state := "RENDER"
	switch {
	case m.done != nil && m.done.Err != nil:
		state = "FAILED"
	case m.done != nil:
		state = "DONE"
	case m.aborting:
		state = "ABORT"
	}

	header := headerStyle.Render(fmt.Sprintf("go-squaresynth  %s  %s → %s",
		state, filepath.Base(m.Input), filepath.Base(m.Output)))

	fraction := p.Fraction()
	if m.done != nil && m.done.Err == nil {
		fraction = 1
	}

	status := fmt.Sprintf("%7.2fs  beat %8.2f  %6.1fbpm  voices %3d  events %d/%d",
		p.Time, p.Tick, p.Tempo, p.Voices, p.Cursor, p.Events)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.bar.ViewAs(fraction))
	out.WriteString("\n")
	out.WriteString(status)
	out.WriteString("\n\n")
	if len(p.Channels) > 0 {
		out.WriteString(widgets.RenderChannels(m.Theme, p.Channels))
		out.WriteString("\n\n")
	}
	if p.Samples >= p.Ceiling && p.Ceiling > 0 {
		out.WriteString(warnStyle.Render("sample ceiling reached, output truncated"))
		out.WriteString("\n")
	}
	if m.done != nil && m.done.Err != nil {
		out.WriteString(warnStyle.Render(m.done.Err.Error()))
		out.WriteString("\n")
	}
	help := keys.Abort.Help()
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: fmt.Sprintf("elapsed %s", time.Since(m.started).Round(time.Second)), Keys: []widgets.KeyBinding{
			{Key: help.Key, Desc: help.Desc},
		}},
	})))
	out.WriteString("\n")

	return out.String()
}

// Job runs a render, reporting progress through onProgress
type Job func(ctx context.Context, onProgress func(render.Progress)) (render.Stats, error)

// Run shows the progress view while job runs in the background and returns
// the job's result. Quitting the view cancels the job. Run always waits for
// the job to return, so its sinks are finished before Run does.
func Run(ctx context.Context, th *theme.Theme, input, output string, job Job, opts ...tea.ProgramOption) (render.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(th, input, output, cancel)
	p := tea.NewProgram(m, opts...)

	result := make(chan DoneMsg, 1)
	go func() {
		var last time.Time
		stats, err := job(ctx, func(pr render.Progress) {
			if now := time.Now(); now.Sub(last) >= progressInterval {
				last = now
				p.Send(ProgressMsg(pr))
			}
		})
		done := DoneMsg{Stats: stats, Err: err}
		result <- done
		p.Send(done)
	}()

	_, err := p.Run()
	// the view may exit before the job; stop it and wait
	cancel()
	done := <-result
	if err != nil {
		debug.Log("tui", "program exited: %v", err)
		return done.Stats, fmt.Errorf("tui: %w", err)
	}
	return done.Stats, done.Err
}
