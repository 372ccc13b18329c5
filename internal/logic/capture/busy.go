package capture

import "strings"

// busyPatterns enumerate the capture process output fragments that mean
// another process holds the camera. Classification stays a flat table
// so the taxonomy is testable and extensible.
var busyPatterns = []string{
	"Pipeline handler in use by another process",
	"Device or resource busy",
	"failed to acquire camera",
}

// cameraProcessPatterns name processes that commonly hold the camera
// pipeline open, used to enrich the busy report.
var cameraProcessPatterns = []string{"rpicam", "libcamera", "vilib", "picamera"}

func isDeviceBusy(output string) bool {
	for _, pat := range busyPatterns {
		if strings.Contains(output, pat) {
			return true
		}
	}
	return false
}

// busyReport composes a human-readable report of camera-related
// processes. It never fails: a diagnostic error only degrades the
// report, the original busy classification is what the caller sees.
func (s *Supervisor) busyReport() string {
	lines := []string{
		"Camera appears busy (another process has the device open).",
		"Close any running previews/streams (rpicam-*, libcamera-hello, Vilib).",
	}
	if procs := s.listCameraProcesses(); len(procs) > 0 {
		lines = append(lines, "Active camera-related processes:")
		lines = append(lines, procs...)
	} else {
		lines = append(lines, "No obvious camera processes found.")
	}
	return strings.Join(lines, "\n")
}

func (s *Supervisor) listCameraProcesses() []string {
	res, err := s.runner.Run("ps", "-ef")
	if err != nil || res.ExitCode != 0 {
		return nil
	}

	var matched []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		for _, pat := range cameraProcessPatterns {
			if strings.Contains(line, pat) {
				matched = append(matched, strings.TrimSpace(line))
				break
			}
		}
	}
	return matched
}
