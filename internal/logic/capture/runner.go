package capture

import (
	"bytes"
	"errors"
	"os/exec"
)

// Result is the outcome of one external process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external process synchronously and captures its
// output. It exists so tests can substitute a fake for os/exec.
type Runner interface {
	Run(name string, args ...string) (Result, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// Run executes the process and waits for it. A nonzero exit status is
// reported through Result.ExitCode, not as an error; the error return
// is reserved for invocations that never ran (missing binary, etc.).
func (ExecRunner) Run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
