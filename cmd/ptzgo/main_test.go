package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cjeanneret/ptzgo/internal/logic/motion"
	"github.com/cjeanneret/ptzgo/internal/state"
)

func parseMove(t *testing.T, args ...string) (motion.Request, error) {
	t.Helper()
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	return parseMoveRequest(fs, args, 300)
}

func TestParseMoveRequest_OmittedAxesAreNil(t *testing.T) {
	req, err := parseMove(t)
	if err != nil {
		t.Fatal(err)
	}
	if req.Pan != nil || req.Tilt != nil {
		t.Errorf("unset axes should be nil, got pan=%v tilt=%v", req.Pan, req.Tilt)
	}
	if req.SmoothMs != 300 {
		t.Errorf("smoothMs = %d, want default 300", req.SmoothMs)
	}
	if req.Bounds != state.DefaultBounds() {
		t.Errorf("bounds = %+v, want defaults", req.Bounds)
	}
}

func TestParseMoveRequest_SetAxes(t *testing.T) {
	req, err := parseMove(t, "-pan", "45.5", "-relative", "-smooth-ms", "100")
	if err != nil {
		t.Fatal(err)
	}
	if req.Pan == nil || *req.Pan != 45.5 {
		t.Fatalf("pan = %v, want 45.5", req.Pan)
	}
	if req.Tilt != nil {
		t.Errorf("tilt should stay nil, got %v", *req.Tilt)
	}
	if !req.Relative || req.SmoothMs != 100 {
		t.Errorf("relative=%v smoothMs=%d", req.Relative, req.SmoothMs)
	}
}

func TestParseMoveRequest_BoundsOverride(t *testing.T) {
	req, err := parseMove(t, "-pan", "90", "-pan-min", "-45", "-pan-max", "45")
	if err != nil {
		t.Fatal(err)
	}
	want := state.DefaultBounds()
	want.PanMin, want.PanMax = -45, 45
	if req.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", req.Bounds, want)
	}
}

func TestValidateChoice(t *testing.T) {
	if err := validateChoice("af-mode", "", "auto"); err != nil {
		t.Errorf("empty value should pass: %v", err)
	}
	if err := validateChoice("af-mode", "auto", "manual", "auto"); err != nil {
		t.Errorf("allowed value rejected: %v", err)
	}
	if err := validateChoice("af-mode", "turbo", "manual", "auto"); err == nil {
		t.Error("invalid value accepted")
	}
}

func testConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
state:
  path: %s
defaults:
  mock_pwm: true
`, filepath.Join(dir, "ptz_state.json"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_NoCommand(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := run(nil, &out, &errBuf); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := run([]string{"wiggle"}, &out, &errBuf); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(errBuf.String(), "unknown command") {
		t.Errorf("stderr = %q", errBuf.String())
	}
}

func TestRun_StatusDefaults(t *testing.T) {
	cfgPath := testConfigFile(t)

	var out, errBuf bytes.Buffer
	if code := run([]string{"-config", cfgPath, "status"}, &out, &errBuf); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errBuf.String())
	}
	for _, field := range []string{`"pan": 0`, `"tilt": 0`, `"pan_min": -90`, `"tilt_max": 30`} {
		if !strings.Contains(out.String(), field) {
			t.Errorf("status output missing %s:\n%s", field, out.String())
		}
	}
}

func TestRun_MoveWithMockDriver(t *testing.T) {
	cfgPath := testConfigFile(t)

	var out, errBuf bytes.Buffer
	args := []string{"-config", cfgPath, "move", "-pan", "90", "-pan-min", "-45", "-pan-max", "45", "-smooth-ms", "0"}
	if code := run(args, &out, &errBuf); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errBuf.String())
	}
	if got := strings.TrimSpace(out.String()); got != "pan=45.0 tilt=0.0" {
		t.Errorf("output = %q, want pan=45.0 tilt=0.0", got)
	}

	// Second invocation reads the persisted position back.
	out.Reset()
	if code := run([]string{"-config", cfgPath, "status"}, &out, &errBuf); code != 0 {
		t.Fatalf("status exit code = %d", code)
	}
	if !strings.Contains(out.String(), `"pan": 45`) {
		t.Errorf("persisted pan missing from status:\n%s", out.String())
	}
}

func TestRun_CenterAfterMove(t *testing.T) {
	cfgPath := testConfigFile(t)

	var out, errBuf bytes.Buffer
	if code := run([]string{"-config", cfgPath, "move", "-pan", "20", "-tilt", "10", "-smooth-ms", "0"}, &out, &errBuf); code != 0 {
		t.Fatalf("move exit code = %d, stderr: %s", code, errBuf.String())
	}
	out.Reset()
	if code := run([]string{"-config", cfgPath, "center"}, &out, &errBuf); code != 0 {
		t.Fatalf("center exit code = %d, stderr: %s", code, errBuf.String())
	}
	if got := strings.TrimSpace(out.String()); got != "pan=0.0 tilt=0.0" {
		t.Errorf("center output = %q, want pan=0.0 tilt=0.0", got)
	}
}
