package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cjeanneret/ptzgo/internal/config"
	"github.com/cjeanneret/ptzgo/internal/debug"
	"github.com/cjeanneret/ptzgo/internal/hw/pwm"
	"github.com/cjeanneret/ptzgo/internal/logic/capture"
	"github.com/cjeanneret/ptzgo/internal/logic/motion"
	"github.com/cjeanneret/ptzgo/internal/state"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("ptzgo", flag.ContinueOnError)
	global.SetOutput(stderr)
	cfgPath := global.String("config", "", "path to optional YAML config file")
	debugLevel := global.Int("debug", -1, "override debug level (0-4)")
	global.Usage = func() {
		fmt.Fprintln(stderr, "usage: ptzgo [-config path] [-debug level] <command> [flags]")
		fmt.Fprintln(stderr, "commands: move, center, status, photo, video")
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() < 1 {
		global.Usage()
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *debugLevel >= 0 {
		cfg.Defaults.DebugLevel = *debugLevel
	}
	debug.Init(cfg.Defaults.DebugLevel)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "move":
		err = cmdMove(cfg, rest, stdout, stderr)
	case "center":
		err = cmdCenter(cfg, stdout)
	case "status":
		err = cmdStatus(cfg, stdout)
	case "photo":
		err = cmdPhoto(cfg, rest, stdout, stderr)
	case "video":
		err = cmdVideo(cfg, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		global.Usage()
		return 2
	}
	if err != nil {
		var busy *capture.BusyError
		if errors.As(err, &busy) {
			fmt.Fprintln(stderr, busy.Report)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newController wires the motion controller with the configured state
// store and a driver factory that acquires the hardware per move.
func newController(cfg *config.Config) (*motion.Controller, *state.Store) {
	store := state.NewStore(cfg.State.Path)
	pins := pwm.Pins{Pan: cfg.Servo.PanPin, Tilt: cfg.Servo.TiltPin}
	connect := func() (pwm.Driver, error) {
		return pwm.NewDriver(cfg.Defaults.MockPWM, pins)
	}
	return motion.NewController(connect, store), store
}

func newSupervisor(cfg *config.Config) *capture.Supervisor {
	return capture.NewSupervisor(capture.Config{
		StillCommand: cfg.Capture.StillCommand,
		VideoCommand: cfg.Capture.VideoCommand,
		PhotoDir:     cfg.Capture.PhotoDir,
		VideoDir:     cfg.Capture.VideoDir,
	}, capture.ExecRunner{})
}

// parseMoveRequest builds a motion.Request from move flags. An axis flag
// left unset stays nil (axis unchanged); omitted bounds fall back to the
// hardcoded defaults, replacing whatever bounds were stored before.
func parseMoveRequest(fs *flag.FlagSet, args []string, defaultSmoothMs int) (motion.Request, error) {
	bounds := state.DefaultBounds()
	pan := fs.Float64("pan", 0, "pan angle in degrees")
	tilt := fs.Float64("tilt", 0, "tilt angle in degrees")
	relative := fs.Bool("relative", false, "treat pan/tilt as deltas")
	smoothMs := fs.Int("smooth-ms", defaultSmoothMs, "smooth move duration in ms")
	fs.Float64Var(&bounds.PanMin, "pan-min", bounds.PanMin, "pan lower bound in degrees")
	fs.Float64Var(&bounds.PanMax, "pan-max", bounds.PanMax, "pan upper bound in degrees")
	fs.Float64Var(&bounds.TiltMin, "tilt-min", bounds.TiltMin, "tilt lower bound in degrees")
	fs.Float64Var(&bounds.TiltMax, "tilt-max", bounds.TiltMax, "tilt upper bound in degrees")
	if err := fs.Parse(args); err != nil {
		return motion.Request{}, err
	}

	req := motion.Request{
		Relative: *relative,
		SmoothMs: *smoothMs,
		Bounds:   bounds,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pan":
			req.Pan = pan
		case "tilt":
			req.Tilt = tilt
		}
	})
	return req, nil
}

func cmdMove(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(stderr)
	req, err := parseMoveRequest(fs, args, cfg.Defaults.SmoothMs)
	if err != nil {
		return err
	}
	return doMove(cfg, req, stdout)
}

func cmdCenter(cfg *config.Config, stdout io.Writer) error {
	zero := 0.0
	return doMove(cfg, motion.Request{
		Pan:      &zero,
		Tilt:     &zero,
		SmoothMs: cfg.Defaults.SmoothMs,
		Bounds:   state.DefaultBounds(),
	}, stdout)
}

func doMove(cfg *config.Config, req motion.Request, stdout io.Writer) error {
	ctrl, store := newController(cfg)

	if !cfg.State.DisableLock {
		release, err := store.Lock()
		if err != nil {
			return err
		}
		defer release()
	}

	pos, err := ctrl.Move(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "pan=%.1f tilt=%.1f\n", pos.Pan, pos.Tilt)
	return nil
}

func cmdStatus(cfg *config.Config, stdout io.Writer) error {
	store := state.NewStore(cfg.State.Path)
	data, err := json.MarshalIndent(store.Load(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

func cmdPhoto(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("photo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts capture.PhotoOptions
	fs.StringVar(&opts.Output, "output", "", "output file path")
	fs.StringVar(&opts.Output, "o", "", "shorthand for -output")
	fs.IntVar(&opts.TimeoutMs, "timeout-ms", 2000, "capture timeout in ms")
	fs.BoolVar(&opts.HFlip, "hflip", true, "flip image horizontally")
	fs.BoolVar(&opts.VFlip, "vflip", true, "flip image vertically")
	fs.StringVar(&opts.AFMode, "af-mode", "", "autofocus mode: manual, auto, continuous, default")
	fs.StringVar(&opts.AFRange, "af-range", "", "autofocus range: normal, macro, full")
	fs.StringVar(&opts.AFSpeed, "af-speed", "", "autofocus speed: normal, fast")
	fs.BoolVar(&opts.AFOnCapture, "af-on-capture", false, "run autofocus right before capture")
	lensPosition := fs.Float64("lens-position", 0, "manual lens position")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "lens-position" {
			opts.LensPosition = lensPosition
		}
	})

	if err := validateChoice("af-mode", opts.AFMode, "manual", "auto", "continuous", "default"); err != nil {
		return err
	}
	if err := validateChoice("af-range", opts.AFRange, "normal", "macro", "full"); err != nil {
		return err
	}
	if err := validateChoice("af-speed", opts.AFSpeed, "normal", "fast"); err != nil {
		return err
	}

	out, err := newSupervisor(cfg).Photo(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func cmdVideo(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("video", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts capture.VideoOptions
	fs.StringVar(&opts.Output, "output", "", "output file path")
	fs.StringVar(&opts.Output, "o", "", "shorthand for -output")
	fs.Float64Var(&opts.DurationS, "duration-s", 5, "duration in seconds (0 = until interrupted)")
	fs.BoolVar(&opts.HFlip, "hflip", true, "flip image horizontally")
	fs.BoolVar(&opts.VFlip, "vflip", true, "flip image vertically")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out, err := newSupervisor(cfg).Video(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

// validateChoice checks an optional enum flag against its allowed values.
func validateChoice(name, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid -%s value %q (allowed: %v)", name, value, allowed)
}
