package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// Result captures the outcome of an external process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes a command synchronously and blocks until it exits.
//
// A non-zero exit is reported through Result.ExitCode with a nil error; the
// error is reserved for processes that could not be started at all.
type Runner interface {
	Run(argv []string) (Result, error)
}

// ExecRunner runs commands with os/exec. There is no timeout.
type ExecRunner struct{}

// Run executes argv[0] with the remaining arguments, capturing stdout and
// stderr separately.
func (ExecRunner) Run(argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: -1}, errors.New("run: empty command")
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the process was killed by a signal.
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	result.ExitCode = -1
	return result, fmt.Errorf("start %s: %w", argv[0], err)
}
