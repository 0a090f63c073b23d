package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-fxplayer/audio/decode"
	"github.com/cwbudde/algo-fxplayer/export"
	"github.com/cwbudde/algo-fxplayer/internal/device"
	"github.com/cwbudde/algo-fxplayer/internal/suggest"
	"github.com/cwbudde/algo-fxplayer/transport"
)

func runInfo(w io.Writer, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("info needs at least one file")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "FILE\tCONTAINER\tRATE\tCHANNELS\tBITS\tDURATION\n")
	for _, path := range files {
		info, err := decode.Probe(path)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\n", path, err)
			continue
		}
		dur := "unknown"
		if info.Frames >= 0 {
			dur = formatClock(info.Duration())
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			path, info.Container, info.Format.SampleRate, info.Format.Channels, info.BitDepth(), dur)
	}
	return tw.Flush()
}

func newExporter(opts options) *export.Exporter {
	return export.New(
		export.WithLogger(opts.log),
		export.WithFFmpeg(opts.cfg.FFmpegPath),
		export.WithQuality(opts.quality),
		export.WithDither(opts.dither, opts.shaping),
	)
}

func runRender(ctx context.Context, opts options, src, target string) error {
	last := -1
	res, err := newExporter(opts).Export(ctx, export.Request{
		SourcePath: src,
		Target:     target,
		Settings:   opts.settings,
		Format:     opts.format,
	}, func(percent float64, status string) {
		if p := int(percent); p != last {
			last = p
			fmt.Fprintf(os.Stderr, "\r%3d%% %-24s", p, status)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if res.FellBack {
		fmt.Fprintf(os.Stderr, "ffmpeg not available, wrote WAV instead\n")
	}
	fmt.Printf("%s\t%s\n", res.Path, formatClock(res.Duration))
	return nil
}

func runSuggest(ctx context.Context, opts options, words []string) error {
	client, err := suggest.New(suggest.Config{
		Endpoint: opts.cfg.SuggestURL,
		APIKey:   opts.cfg.SuggestAPIKey,
		Model:    opts.cfg.SuggestModel,
		Timeout:  opts.cfg.SuggestTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w (set FXPLAY_SUGGEST_URL)", err)
	}

	s, err := client.Suggest(ctx, strings.Join(words, " "), opts.settings)
	if err != nil {
		return err
	}
	return s.WriteYAML(os.Stdout)
}

func runPlay(ctx context.Context, opts options, path string, in io.Reader) error {
	engine, err := transport.New(device.NewOto(0),
		transport.WithLogger(opts.log),
		transport.WithDebounce(opts.cfg.Debounce),
		transport.WithPositionInterval(opts.cfg.PositionInterval),
		transport.WithQuality(opts.quality),
		transport.WithSettings(opts.settings),
		transport.WithExporter(newExporter(opts)),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	events, unsubscribe := engine.Subscribe(32)
	defer unsubscribe()

	if err := engine.Load(path); err != nil {
		return err
	}
	if err := engine.Play(); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		close(lines)
	}()

	// held is set while the user stopped playback; a Stopped state is
	// then not the end of the file.
	held := false
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr)
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case transport.EventPosition:
				fmt.Fprintf(os.Stderr, "\r%s / %s ", formatClock(ev.Position), formatClock(ev.Total))
			case transport.EventRebuilt:
				fmt.Fprintf(os.Stderr, "\rchain: %v\n", ev.Units)
			case transport.EventError:
				fmt.Fprintf(os.Stderr, "\rerror: %v\n", ev.Err)
			case transport.EventState:
				if ev.State == transport.Stopped && !held {
					fmt.Fprintln(os.Stderr)
					return nil
				}
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			quit, err := command(engine, line, &held)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\r%v\n", err)
			}
			if quit {
				engine.Stop()
				return nil
			}
		}
	}
}

// command executes one interactive line.
func command(e *transport.Engine, line string, held *bool) (quit bool, err error) {
	verb, arg, _ := strings.Cut(line, " ")
	switch verb {
	case "":
		return false, nil
	case "q", "quit":
		return true, nil
	case "p", "pause":
		if e.IsPlaying() {
			e.Pause()
			return false, nil
		}
		*held = false
		return false, e.Play()
	case "stop":
		*held = true
		e.Stop()
		return false, nil
	case "s", "seek":
		secs, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return false, fmt.Errorf("seek: %w", err)
		}
		return false, e.Seek(time.Duration(secs * float64(time.Second)))
	case "set":
		return false, e.MergeSettings([]byte(arg))
	case "export":
		res := <-e.Export(context.Background(), strings.TrimSpace(arg), export.DefaultFormat(), nil)
		if res.Err != nil {
			return false, res.Err
		}
		fmt.Fprintf(os.Stderr, "\rwrote %s (%s)\n", res.Path, formatClock(res.Duration))
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (p, stop, s SECONDS, set JSON, export FILE, q)", verb)
	}
}

// formatClock renders d as m:ss.t.
func formatClock(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	m := d / time.Minute
	s := (d % time.Minute).Seconds()
	return fmt.Sprintf("%d:%04.1f", m, s)
}
