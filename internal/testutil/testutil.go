// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/fastogt/build-env/internal/shell"
)

// RecordingRunner is a shell.Runner that records commands instead of
// executing them. Fail maps a substring of the rendered command to the
// error returned for matching commands. Output maps a substring to the
// text written to the command's Stdout.
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []shell.Command
	Fail     map[string]error
	Output   map[string]string

	// OnRun, if set, is called for every command after it is recorded.
	OnRun func(cmd shell.Command) error
}

// Run records cmd and returns the configured failure, if any.
func (r *RecordingRunner) Run(ctx context.Context, cmd shell.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	r.Commands = append(r.Commands, cmd)

	line := cmd.String()
	if cmd.Stdout != nil {
		for substr, out := range r.Output {
			if strings.Contains(line, substr) {
				_, _ = io.WriteString(cmd.Stdout, out)
			}
		}
	}
	for substr, err := range r.Fail {
		if strings.Contains(line, substr) {
			return err
		}
	}
	if r.OnRun != nil {
		return r.OnRun(cmd)
	}
	return nil
}

// Lines returns the recorded commands rendered as strings.
func (r *RecordingRunner) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		lines[i] = c.String()
	}
	return lines
}
