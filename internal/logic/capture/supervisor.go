package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/ptzgo/internal/debug"
)

var (
	// ErrDeviceBusy means the capture process failed because another
	// process held the camera. The concrete error carries a diagnostic
	// report of the likely culprits.
	ErrDeviceBusy = errors.New("capture device busy")
	// ErrFailed covers every other capture process failure.
	ErrFailed = errors.New("capture failed")
)

// BusyError is a device-contention failure enriched with a process report.
type BusyError struct {
	ExitCode int
	Report   string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("capture device busy (exit %d)", e.ExitCode)
}

func (e *BusyError) Unwrap() error { return ErrDeviceBusy }

// ProcessError is a capture failure with the raw process output attached.
type ProcessError struct {
	ExitCode int
	Output   string // combined stdout+stderr, may be empty
}

func (e *ProcessError) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return fmt.Sprintf("capture failed with exit %d: %s", e.ExitCode, out)
	}
	return fmt.Sprintf("capture failed with exit %d", e.ExitCode)
}

func (e *ProcessError) Unwrap() error { return ErrFailed }

// Config names the external capture binaries and the default media
// directories for generated output paths.
type Config struct {
	StillCommand string
	VideoCommand string
	PhotoDir     string
	VideoDir     string
}

// PhotoOptions mirror the rpicam-still flags this tool exposes.
// Zero-valued string fields are omitted from the command line.
type PhotoOptions struct {
	Output       string
	TimeoutMs    int
	HFlip        bool
	VFlip        bool
	AFMode       string // manual, auto, continuous, default
	AFRange      string // normal, macro, full
	AFSpeed      string // normal, fast
	AFOnCapture  bool
	LensPosition *float64
}

// VideoOptions mirror the rpicam-vid flags this tool exposes.
// DurationS <= 0 records until the process is interrupted.
type VideoOptions struct {
	Output    string
	DurationS float64
	HFlip     bool
	VFlip     bool
}

// Supervisor invokes the external capture process and classifies its
// outcome. It holds no state and does not coordinate with the motion
// side: the two use disjoint hardware.
type Supervisor struct {
	cfg    Config
	runner Runner
	now    func() time.Time
}

func NewSupervisor(cfg Config, runner Runner) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		runner: runner,
		now:    time.Now,
	}
}

// Photo takes a still and returns the resolved output path.
func (s *Supervisor) Photo(opts PhotoOptions) (string, error) {
	out := opts.Output
	if out == "" {
		out = filepath.Join(s.cfg.PhotoDir, "photo_"+stamp(s.now())+".jpg")
	}
	if err := ensureDir(out); err != nil {
		return "", err
	}
	if err := s.runCapture(s.cfg.StillCommand, photoArgs(opts, out)); err != nil {
		return "", err
	}
	return out, nil
}

// Video records a clip and returns the resolved output path.
func (s *Supervisor) Video(opts VideoOptions) (string, error) {
	out := opts.Output
	if out == "" {
		out = filepath.Join(s.cfg.VideoDir, "video_"+stamp(s.now())+".h264")
	}
	if err := ensureDir(out); err != nil {
		return "", err
	}
	if err := s.runCapture(s.cfg.VideoCommand, videoArgs(opts, out)); err != nil {
		return "", err
	}
	return out, nil
}

func stamp(t time.Time) string {
	return t.Format("20060102_150405")
}

func ensureDir(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %w", ErrFailed, err)
	}
	return nil
}

func photoArgs(opts PhotoOptions, out string) []string {
	args := []string{"--timeout", strconv.Itoa(opts.TimeoutMs), "--nopreview", "-o", out}
	if opts.HFlip {
		args = append(args, "--hflip")
	}
	if opts.VFlip {
		args = append(args, "--vflip")
	}
	if opts.AFMode != "" {
		args = append(args, "--autofocus-mode", opts.AFMode)
	}
	if opts.AFRange != "" {
		args = append(args, "--autofocus-range", opts.AFRange)
	}
	if opts.AFSpeed != "" {
		args = append(args, "--autofocus-speed", opts.AFSpeed)
	}
	if opts.AFOnCapture {
		args = append(args, "--autofocus-on-capture")
	}
	if opts.LensPosition != nil {
		args = append(args, "--lens-position", strconv.FormatFloat(*opts.LensPosition, 'f', -1, 64))
	}
	return args
}

func videoArgs(opts VideoOptions, out string) []string {
	// Duration <= 0 maps to timeout 0: record until interrupted.
	timeoutMs := 0
	if opts.DurationS > 0 {
		timeoutMs = int(opts.DurationS * 1000)
	}
	args := []string{"--timeout", strconv.Itoa(timeoutMs), "--nopreview", "-o", out}
	if opts.HFlip {
		args = append(args, "--hflip")
	}
	if opts.VFlip {
		args = append(args, "--vflip")
	}
	return args
}

// runCapture executes the capture binary and classifies a nonzero exit
// via the busy-pattern table.
func (s *Supervisor) runCapture(name string, args []string) error {
	debug.Exec(name, args)

	res, err := s.runner.Run(name, args...)
	if err != nil {
		return fmt.Errorf("%w: run %s: %w", ErrFailed, name, err)
	}
	if res.ExitCode == 0 {
		return nil
	}

	combined := res.Stdout + res.Stderr
	if isDeviceBusy(combined) {
		return &BusyError{ExitCode: res.ExitCode, Report: s.busyReport()}
	}
	return &ProcessError{ExitCode: res.ExitCode, Output: combined}
}
