package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"golang.org/x/term"

	"go-squaresynth/config"
	"go-squaresynth/debug"
	"go-squaresynth/midi"
	"go-squaresynth/player"
	"go-squaresynth/render"
	"go-squaresynth/spectrum"
	"go-squaresynth/theme"
	"go-squaresynth/tui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	output     string
	play       bool
	analyze    bool
	saveConfig bool
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(err)
	}

	opts, input, err := parseFlags(args, cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if ftag.Get(err) == ftag.None {
			// flag has already printed the problem
			return 2
		}
		return fail(err)
	}

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
		}
		defer debug.Disable()
	}

	if opts.saveConfig {
		if err := cfg.Save(); err != nil {
			return fail(err)
		}
		path, _ := config.ConfigPath()
		fmt.Printf("Saved config to %s\n", path)
		if input == "" {
			return 0
		}
	}
	if input == "" {
		usage()
		return 2
	}

	events, err := midi.LoadFile(input)
	if err != nil {
		return fail(err)
	}
	output := opts.output
	if output == "" {
		output = cfg.OutputPath(input)
	}
	printSummary(input, output, midi.Summarize(events), midi.Seconds(events))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, analyzer, err := renderScore(ctx, cfg, opts, events, input, output)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fail(err)
	}
	printStats(stats)
	if analyzer != nil {
		printAnalysis(analyzer)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Println("Aborted, output is partial")
		return 130
	}

	// reload so flag overrides are not persisted
	if saved, err := config.Load(); err == nil {
		saved.AddRecent(input)
		if err := saved.Save(); err != nil {
			debug.Log("config", "save recent: %v", err)
		}
	}
	return 0
}

func parseFlags(args []string, cfg *config.Config) (options, string, error) {
	var opts options
	fs := flag.NewFlagSet("go-squaresynth", flag.ContinueOnError)
	fs.Usage = usage

	fs.StringVar(&opts.output, "o", "", "output WAV file (default: input name with .wav)")
	fs.IntVar(&cfg.Render.SampleRate, "rate", cfg.Render.SampleRate, "sample rate in Hz")
	fs.Float64Var(&cfg.Render.MaxSeconds, "max", cfg.Render.MaxSeconds, "maximum seconds to render")
	fs.Float64Var(&cfg.Render.TailSeconds, "tail", cfg.Render.TailSeconds, "seconds to keep rendering after the last event")
	fs.IntVar(&cfg.Output.BitDepth, "bits", cfg.Output.BitDepth, "output bit depth (16 or 24)")
	fs.BoolVar(&opts.play, "play", false, "also play through the default audio device")
	fs.BoolVar(&opts.analyze, "analyze", false, "print level and dominant frequency of the output")
	tuiMode := fs.String("tui", string(cfg.UI.TUI), "progress view: auto, on or off")
	fs.StringVar(&cfg.UI.Palette, "palette", cfg.UI.Palette, "GIMP palette for the progress view")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "write a debug log to ~/.config/go-squaresynth/debug.log")
	fs.BoolVar(&opts.saveConfig, "save-config", false, "save the effective settings as defaults")

	if err := fs.Parse(args); err != nil {
		return opts, "", err
	}
	cfg.UI.TUI = config.TUIMode(*tuiMode)
	if err := cfg.Validate(); err != nil {
		return opts, "", err
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "expected one input file, got %d\n", fs.NArg())
		return opts, "", errors.New("too many arguments")
	}
	return opts, fs.Arg(0), nil
}

func usage() {
	fmt.Println("go-squaresynth - render a MIDI file to WAV with a square-wave synth")
	fmt.Println("")
	fmt.Println("Usage: go-squaresynth [flags] <file.mid>")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  -o file        output WAV file (default: input name with .wav)")
	fmt.Println("  -rate hz       sample rate")
	fmt.Println("  -max s         maximum seconds to render")
	fmt.Println("  -tail s        keep rendering after the last event")
	fmt.Println("  -bits n        16 or 24")
	fmt.Println("  -play          also play through the audio device")
	fmt.Println("  -analyze       print level and dominant frequency")
	fmt.Println("  -tui mode      auto, on or off")
	fmt.Println("  -palette file  GIMP palette for the progress view")
	fmt.Println("  -debug         write a debug log")
	fmt.Println("  -save-config   save the effective settings as defaults")
}

func renderScore(ctx context.Context, cfg *config.Config, opts options, events []midi.Event, input, output string) (render.Stats, *spectrum.Analyzer, error) {
	var extra []render.Sink
	var analyzer *spectrum.Analyzer
	if opts.analyze {
		analyzer = spectrum.New(cfg.Render.SampleRate, spectrum.DefaultSize)
		extra = append(extra, analyzer)
	}
	if opts.play {
		p, err := player.New(cfg.Render.SampleRate)
		if err != nil {
			return render.Stats{}, nil, err
		}
		extra = append(extra, p)
	}

	job := func(ctx context.Context, onProgress func(render.Progress)) (render.Stats, error) {
		return render.File(ctx, events, output, cfg.Render.SampleRate, cfg.Output.BitDepth, render.Options{
			MaxSeconds:    cfg.Render.MaxSeconds,
			TailSeconds:   cfg.Render.TailSeconds,
			ProgressEvery: cfg.Render.ProgressEvery,
			OnProgress:    onProgress,
		}, extra...)
	}

	if useTUI(cfg.UI.TUI) {
		palette, err := theme.LoadOrDefault(cfg.UI.Palette)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, using built-in palette\n", err)
			palette = theme.Default()
		}
		stats, err := tui.Run(ctx, theme.New(palette), input, output, job)
		return stats, analyzer, err
	}

	stats, err := job(ctx, plainProgress())
	return stats, analyzer, err
}

func useTUI(mode config.TUIMode) bool {
	switch mode {
	case config.TUIOn:
		return true
	case config.TUIOff:
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// fail reports err and returns the exit code for its kind
func fail(err error) int {
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	debug.Log("main", "error: %v", err)

	switch ftag.Get(err) {
	case ftag.InvalidArgument:
		return 2
	case ftag.NotFound:
		return 3
	}
	return 1
}
