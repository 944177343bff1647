// Package bootstrap sequences the bootstrap steps: system package
// installation followed by the four library builds.
package bootstrap

import (
	"context"
	"fmt"
)

// Step identifies one bootstrap step.
type Step int

const (
	StepSystem Step = iota
	StepJsonc
	StepLibev
	StepCommon
	StepFastotvProtocol
)

var stepNames = [...]string{
	StepSystem:          "system",
	StepJsonc:           "json-c",
	StepLibev:           "libev",
	StepCommon:          "common",
	StepFastotvProtocol: "fastotv_protocol",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Order returns every step in execution order.
func Order() []Step {
	return []Step{StepSystem, StepJsonc, StepLibev, StepCommon, StepFastotvProtocol}
}

// Options holds the per-step toggles and the two master switches.
//
// InstallOtherPackages gates the system, json-c and libev steps.
// InstallFastogtPackages gates common and fastotv_protocol.
type Options struct {
	WithSystem          bool
	WithJsonc           bool
	WithLibev           bool
	WithCommon          bool
	WithFastotvProtocol bool

	InstallOtherPackages   bool
	InstallFastogtPackages bool
}

// DefaultOptions enables every step.
func DefaultOptions() Options {
	return Options{
		WithSystem:             true,
		WithJsonc:              true,
		WithLibev:              true,
		WithCommon:             true,
		WithFastotvProtocol:    true,
		InstallOtherPackages:   true,
		InstallFastogtPackages: true,
	}
}

// Enabled reports whether step runs: its own toggle AND its master switch.
func (o Options) Enabled(step Step) bool {
	switch step {
	case StepSystem:
		return o.WithSystem && o.InstallOtherPackages
	case StepJsonc:
		return o.WithJsonc && o.InstallOtherPackages
	case StepLibev:
		return o.WithLibev && o.InstallOtherPackages
	case StepCommon:
		return o.WithCommon && o.InstallFastogtPackages
	case StepFastotvProtocol:
		return o.WithFastotvProtocol && o.InstallFastogtPackages
	}
	return false
}

// Active returns the enabled steps in execution order.
func (o Options) Active() []Step {
	var active []Step
	for _, s := range Order() {
		if o.Enabled(s) {
			active = append(active, s)
		}
	}
	return active
}

// Steps is implemented by whatever performs the actual work.
type Steps interface {
	InstallSystem(ctx context.Context) error
	BuildJsonc(ctx context.Context) error
	BuildLibev(ctx context.Context) error
	BuildCommon(ctx context.Context) error
	BuildFastotvProtocol(ctx context.Context) error
}

// Invoke runs a single step on steps.
func Invoke(ctx context.Context, steps Steps, step Step) error {
	switch step {
	case StepSystem:
		return steps.InstallSystem(ctx)
	case StepJsonc:
		return steps.BuildJsonc(ctx)
	case StepLibev:
		return steps.BuildLibev(ctx)
	case StepCommon:
		return steps.BuildCommon(ctx)
	case StepFastotvProtocol:
		return steps.BuildFastotvProtocol(ctx)
	}
	return fmt.Errorf("unknown step %s", step)
}

// Hooks observes step execution. Either field may be nil.
type Hooks struct {
	Before func(Step)
	After  func(Step, error)
}

// Run executes the active steps in order. The first failing step stops
// the run; its error is returned wrapped with the step name.
func Run(ctx context.Context, opts Options, steps Steps) error {
	return RunWithHooks(ctx, opts, steps, Hooks{})
}

// RunWithHooks is Run with progress callbacks.
func RunWithHooks(ctx context.Context, opts Options, steps Steps, hooks Hooks) error {
	for _, step := range opts.Active() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hooks.Before != nil {
			hooks.Before(step)
		}
		err := Invoke(ctx, steps, step)
		if hooks.After != nil {
			hooks.After(step, err)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}
