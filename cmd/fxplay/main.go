// Command fxplay plays audio files through the effect chain, renders them
// to disk and asks the suggestion service for settings.
//
// Usage:
//
//	fxplay [flags] info   FILE...
//	fxplay [flags] play   FILE
//	fxplay [flags] render FILE OUT
//	fxplay [flags] suggest PROMPT...
//
// Effect settings come from a YAML file (-settings) and may be patched
// with a JSON fragment (-set). While playing, commands are read from
// stdin: "p" toggles pause, "s SECONDS" seeks, "set JSON" changes
// settings, "export FILE" renders the current settings, "stop" rewinds and
// "q" quits.
//
// Examples:
//
//	fxplay info song.flac
//	fxplay -settings slow.yaml play song.mp3
//	fxplay -set '{"tempo":1.25,"reverb":{"enabled":true}}' render song.wav fast.flac
//	fxplay -rate 48000 -bits 24 -dither tpdf -shaping 9fc render song.ogg out.wav
//	fxplay suggest "underwater, slow and dark" > dark.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-fxplayer/dsp/dither"
	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
	"github.com/cwbudde/algo-fxplayer/export"
	"github.com/cwbudde/algo-fxplayer/internal/config"
	"github.com/cwbudde/algo-fxplayer/internal/logger"
)

type options struct {
	cfg      config.Config
	log      *logger.Logger
	quality  resample.Quality
	settings effectchain.Settings
	format   export.Format
	dither   dither.Type
	shaping  dither.Preset
}

func main() {
	cfg := config.Load()

	settingsPath := flag.String("settings", "", "YAML settings file")
	patch := flag.String("set", "", "JSON settings fragment applied on top of -settings")
	rate := flag.Int("rate", 44100, "render sample rate (22050, 44100, 48000, 96000)")
	channels := flag.Int("channels", 2, "render channel count (1 or 2)")
	bits := flag.Int("bits", 16, "render bit depth (16, 24, 32 = float)")
	ditherName := flag.String("dither", cfg.Dither, "dither for 16/24-bit renders (none, rpdf, tpdf, gaussian)")
	shapingName := flag.String("shaping", cfg.Shaping, "noise shaping for dithered renders (off, efb, 2sc, 3fc, 9fc, sbm)")
	level := flag.String("log", cfg.LogLevel, "log level (debug, info, error, off)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fxplay [flags] info|play|render|suggest ...\n\n")
		fmt.Fprintf(os.Stderr, "Plays and renders audio files through a fixed effect chain.\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	opts := options{
		cfg:     cfg,
		log:     logger.New(logger.ParseLevel(*level), os.Stderr, os.Stderr),
		quality: resample.ParseQuality(cfg.ResampleQuality),
		format:  export.Format{SampleRate: *rate, Channels: *channels, BitDepth: *bits},
	}

	var err error
	opts.settings, err = loadSettings(*settingsPath, *patch)
	if err != nil {
		fatalf("%v", err)
	}
	if opts.dither, err = dither.ParseType(*ditherName); err != nil {
		fatalf("%v", err)
	}
	if opts.shaping, err = dither.ParsePreset(*shapingName); err != nil {
		fatalf("%v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "info":
		err = runInfo(os.Stdout, rest)
	case "play":
		if len(rest) != 1 {
			fatalf("play needs exactly one file")
		}
		err = runPlay(ctx, opts, rest[0], os.Stdin)
	case "render":
		if len(rest) != 2 {
			fatalf("render needs a source and a target")
		}
		err = runRender(ctx, opts, rest[0], rest[1])
	case "suggest":
		err = runSuggest(ctx, opts, rest)
	default:
		fatalf("unknown command %q", cmd)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fatalf("%v", err)
	}
}

// loadSettings reads the YAML file, if any, and applies the JSON patch.
func loadSettings(path, patch string) (effectchain.Settings, error) {
	s := effectchain.DefaultSettings()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return s, err
		}
		defer f.Close()
		if s, err = effectchain.ReadYAML(f); err != nil {
			return s, fmt.Errorf("%s: %w", path, err)
		}
	}
	if patch != "" {
		if err := s.Merge([]byte(patch)); err != nil {
			return s, err
		}
	}
	return s, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fxplay: "+format+"\n", args...)
	os.Exit(1)
}
