// Package execrunner executes single shell command lines with a bounded
// timeout and captured output. The working directory is set on the spawned
// process itself; the package never touches the process-wide working
// directory, so concurrent callers cannot race on it.
package execrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/vk/buildgridgo/internal/ctxlog"
)

// DefaultTimeout bounds a single command when the caller does not set one.
const DefaultTimeout = 300 * time.Second

// Result is the structured outcome of one command. Callers always receive
// a Result; failures at the spawn boundary are folded into it rather than
// raised as errors.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Success reports whether the command exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// CommandRunner runs one shell-executable line in an explicit working
// directory.
type CommandRunner interface {
	Run(ctx context.Context, command, dir string) Result
}

// Runner is the real CommandRunner backed by the platform shell.
type Runner struct {
	// Timeout is the per-command ceiling. Zero means DefaultTimeout.
	Timeout time.Duration
}

// New returns a Runner with the given per-command timeout.
func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run executes command through the platform shell with dir as the spawned
// process's working directory. On timeout the whole process group is
// killed and the Result carries a synthetic non-zero exit classified by
// TimedOut. On spawn failure (missing shell, bad directory) the underlying
// error text lands in Stderr. Run never returns control via panic or error.
func (r *Runner) Run(ctx context.Context, command, dir string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := ctxlog.FromContext(ctx)
	log.Debug("▶️ exec", "dir", dir, "timeout", timeout, "cmd", command)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name, args := shellCommand(command)
	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	configureProcess(cmd)
	cmd.Cancel = func() error {
		terminateProcess(cmd)
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()

	if cctx.Err() == context.DeadlineExceeded {
		log.Warn("⏰ command timed out", "timeout", timeout, "cmd", command)
		return Result{
			ExitCode: 1,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("timeout: command exceeded %s", timeout),
			TimedOut: true,
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
		}
		// The process never ran (or its status is unknowable). Surface the
		// reason the same way a failed command would.
		return Result{
			ExitCode: 1,
			Stdout:   stdout.String(),
			Stderr:   err.Error(),
		}
	}

	return Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}
