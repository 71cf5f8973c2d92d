package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/Southclaws/fault/fmsg"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-squaresynth/midi"
	"go-squaresynth/synth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, w io.Writer) int {
	if len(args) < 2 {
		usage(w)
		return 2
	}

	var err error
	switch args[0] {
	case "events":
		err = dumpEvents(w, args[1])
	case "summary":
		err = dumpSummary(w, args[1])
	case "channels":
		err = dumpChannels(w, args[1])
	case "raw":
		err = dumpRaw(w, args[1])
	default:
		usage(w)
		return 2
	}
	if err != nil {
		msg := fmsg.GetIssue(err)
		if msg == "" {
			msg = err.Error()
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "SMF inspection")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: smfdump <command> <file.mid>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  events    - Print the merged event list the synth plays")
	fmt.Fprintln(w, "  summary   - Print event counts, channels and length")
	fmt.Fprintln(w, "  channels  - Print note counts and final volume/pan per channel")
	fmt.Fprintln(w, "  raw       - Print every message per track as stored in the file")
}

func dumpEvents(w io.Writer, path string) error {
	events, err := midi.LoadFile(path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBEAT\tKIND\tEVENT")
	for i, e := range events {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\n", i, e.EventTick(), e.Kind(), e)
	}
	return tw.Flush()
}

func dumpSummary(w io.Writer, path string) error {
	events, err := midi.LoadFile(path)
	if err != nil {
		return err
	}
	s := midi.Summarize(events)
	fmt.Fprintf(w, "File:     %s\n", path)
	fmt.Fprintf(w, "Events:   %d\n", s.Events)
	for _, k := range midi.Kinds {
		fmt.Fprintf(w, "  %-8s %d\n", k, s.Counts[k])
	}
	fmt.Fprintf(w, "Channels: %d\n", s.Channels)
	fmt.Fprintf(w, "Beats:    %.2f\n", s.LastTick)
	fmt.Fprintf(w, "Tempo:    %.2f bpm\n", s.Tempo)
	fmt.Fprintf(w, "Seconds:  %.3f\n", midi.Seconds(events))
	return nil
}

type channelInfo struct {
	notes  int
	lowest int
	high   int
	synth.Channel
}

func dumpChannels(w io.Writer, path string) error {
	events, err := midi.LoadFile(path)
	if err != nil {
		return err
	}

	infos := map[int]*channelInfo{}
	get := func(ch int) *channelInfo {
		info, ok := infos[ch]
		if !ok {
			info = &channelInfo{lowest: 128, high: -1, Channel: synth.Channel{Volume: synth.DefaultVolume}}
			infos[ch] = info
		}
		return info
	}
	for _, e := range events {
		switch e := e.(type) {
		case midi.NoteOn:
			info := get(e.Channel)
			info.notes++
			info.lowest = min(info.lowest, e.Note)
			info.high = max(info.high, e.Note)
		case midi.VolumeChange:
			get(e.Channel).Volume = e.Volume
		case midi.PanChange:
			get(e.Channel).Pan = e.Pan
		}
	}

	chs := make([]int, 0, len(infos))
	for ch := range infos {
		chs = append(chs, ch)
	}
	sort.Ints(chs)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CH\tNOTES\tRANGE\tVOLUME\tPAN")
	for _, ch := range chs {
		info := infos[ch]
		rng := "-"
		if info.notes > 0 {
			rng = fmt.Sprintf("%d-%d", info.lowest, info.high)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.3f\t%+.3f\n", ch+1, info.notes, rng, info.Volume, info.Pan)
	}
	return tw.Flush()
}

func dumpRaw(w io.Writer, path string) error {
	s, err := smf.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	fmt.Fprintf(w, "Tracks: %d, time format: %s\n", len(s.Tracks), s.TimeFormat)
	for i, tr := range s.Tracks {
		fmt.Fprintf(w, "\n=== Track %d (%d events) ===\n", i, len(tr))
		var abs int64
		for _, ev := range tr {
			abs += int64(ev.Delta)
			fmt.Fprintf(w, "  %8d  %s\n", abs, ev.Message)
		}
	}
	return nil
}
