// Package shell runs external commands for the installer and the builder.
//
// Everything that touches the host (package managers, git, cmake, make)
// goes through a Runner so the callers can be tested with a recording
// fake instead of modifying the machine.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fastogt/build-env/internal/log"
)

// Command is a single external command invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is appended to the process environment.
	Env []string

	// Stdout, if set, also receives the command's standard output.
	Stdout io.Writer
}

// String renders the command as it would be typed in a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError is returned when a command ran but did not succeed.
type ExitError struct {
	Command Command
	Code    int
	Output  string
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\nOutput: " + lastLines(out, 20)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stream copies command output to Stdout/Stderr while it runs.
	// When false, output is captured and only reported on failure.
	Stream bool
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewExecRunner returns a runner that captures output and logs through
// the default logger.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it to finish. Cancelling ctx kills the
// child process.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	logger := log.OrDefault(r.Logger)
	logger.Info("running command", "cmd", cmd.String(), "dir", cmd.Dir)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var captured bytes.Buffer
	if r.Stream {
		c.Stdout = writerOr(r.Stdout, os.Stdout)
		c.Stderr = writerOr(r.Stderr, os.Stderr)
	} else {
		c.Stdout = &captured
		c.Stderr = &captured
	}
	if cmd.Stdout != nil {
		c.Stdout = io.MultiWriter(c.Stdout, cmd.Stdout)
	}

	err := c.Run()
	if err == nil {
		logger.Debug("command finished", "cmd", cmd.Name, "output", lastLines(captured.String(), 5))
		return nil
	}

	// A killed child reports "signal: killed"; surface the cancellation.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s interrupted: %w", cmd, ctxErr)
	}

	exitErr := &ExitError{Command: cmd, Code: -1, Output: captured.String(), Err: err}
	if ee, ok := err.(*exec.ExitError); ok {
		exitErr.Code = ee.ExitCode()
	}
	return exitErr
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

// lastLines keeps the tail of long command output.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
